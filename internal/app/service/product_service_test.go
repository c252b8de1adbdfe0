package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/cache"
	"github.com/phantomcommerce/phantom-backend/internal/catalog"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProductServiceTest(t *testing.T) (ProductService, repository.ProductRepository, cache.ProductCache) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	productCache := cache.NewMemoryProductCache(time.Minute)
	svc := NewProductService(productRepo, storage.NewInlineImageStore(64), productCache, catalog.NewSorter("pt-BR"))
	return svc, productRepo, productCache
}

func seedCatalog(t *testing.T, repo repository.ProductRepository) {
	require.NoError(t, repo.BulkCreate(db.SampleProducts(), 10))
}

func titlesOf(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func TestProductService_ListCategory(t *testing.T) {
	svc, repo, _ := setupProductServiceTest(t)
	seedCatalog(t, repo)

	t.Run("All games sorted by rating", func(t *testing.T) {
		listing, err := svc.ListCategory("all", catalog.NewFilterState())
		require.NoError(t, err)
		assert.Equal(t, catalog.AllTitle, listing.Title)
		assert.Equal(t, len(db.SampleProducts()), listing.Count)
		assert.Equal(t, "Lendas de Aurora", listing.Products[0].Title)
		assert.Equal(t, "", listing.Query)
	})

	t.Run("Category slug seeds the base tag", func(t *testing.T) {
		listing, err := svc.ListCategory("rpg", catalog.NewFilterState())
		require.NoError(t, err)
		assert.Equal(t, "Rpg", listing.Title)
		assert.ElementsMatch(t, []string{"Lendas de Aurora", "Crônicas do Abismo"}, titlesOf(listing.Products))
		assert.True(t, listing.State.HasTag("rpg"))
		assert.NotContains(t, listing.Query, "rpg")
	})

	t.Run("Price bounds and sort", func(t *testing.T) {
		state := catalog.ParseQuery("min_price=60&max_price=210&sort=price-asc")
		listing, err := svc.ListCategory("all", state)
		require.NoError(t, err)
		assert.Equal(t, []string{"Turbo Drift 2", "Crônicas do Abismo", "Lendas de Aurora"}, titlesOf(listing.Products))
		assert.Contains(t, listing.Query, "sort=price-asc")
	})

	t.Run("Inverted price range is empty", func(t *testing.T) {
		state := catalog.ParseQuery("min_price=300&max_price=10")
		listing, err := svc.ListCategory("all", state)
		require.NoError(t, err)
		assert.Empty(t, listing.Products)
	})

	t.Run("Tags and platforms are ANDed", func(t *testing.T) {
		state := catalog.ParseQuery("tags=Aventura&platforms=XBOX")
		listing, err := svc.ListCategory("all", state)
		require.NoError(t, err)
		assert.Equal(t, []string{"Operação Vértice"}, titlesOf(listing.Products))
	})

	t.Run("Facets", func(t *testing.T) {
		listing, err := svc.ListCategory("esportes", catalog.NewFilterState())
		require.NoError(t, err)
		assert.Contains(t, listing.Facets.Tags, "Esportes")
		assert.Contains(t, listing.Facets.Platforms, "nintendo switch")
	})
}

func TestProductService_GetProductDetail(t *testing.T) {
	svc, repo, _ := setupProductServiceTest(t)
	seedCatalog(t, repo)

	all, err := repo.FindAll()
	require.NoError(t, err)

	detail, err := svc.GetProductDetail(all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Lendas de Aurora", detail.Product.Title)
	assert.Equal(t, 20, detail.DiscountPercent)
	assert.ElementsMatch(t, []string{"Crônicas do Abismo", "Reinos em Guerra"}, titlesOf(detail.Related))

	_, err = svc.GetProductDetail(9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_CreateProduct(t *testing.T) {
	svc, repo, productCache := setupProductServiceTest(t)
	ctx := context.Background()

	gen, err := productCache.Generation(ctx)
	require.NoError(t, err)
	stored, err := productCache.Fill(ctx, gen, []model.Product{{Title: "stale"}})
	require.NoError(t, err)
	require.True(t, stored)

	tests := []struct {
		name    string
		input   CreateProductInput
		wantErr error
	}{
		{
			name:    "Missing title",
			input:   CreateProductInput{Price: 10, Categories: []string{"RPG"}},
			wantErr: ErrInvalidProduct,
		},
		{
			name:    "Zero price",
			input:   CreateProductInput{Title: "Jogo", Categories: []string{"RPG"}},
			wantErr: ErrInvalidProduct,
		},
		{
			name:    "Blank categories",
			input:   CreateProductInput{Title: "Jogo", Price: 10, Categories: []string{" ", ""}},
			wantErr: ErrInvalidProduct,
		},
		{
			name: "Oversize image",
			input: CreateProductInput{
				Title:      "Jogo",
				Price:      10,
				Categories: []string{"RPG"},
				CoverImage: "data:image/png;base64," + base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 100)),
			},
			wantErr: ErrImageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("Valid product", func(t *testing.T) {
		cover := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("tiny"))
		product, err := svc.CreateProduct(ctx, CreateProductInput{
			Title:            "  Novo Jogo ",
			Price:            59.9,
			Categories:       []string{"RPG", " "},
			Platforms:        []string{"pc"},
			TrailerURLs:      []string{"https://video.example.com/1", ""},
			RelatedGameNames: []string{"Lendas de Aurora"},
			CoverImage:       cover,
			HeaderImage:      "https://cdn.example.com/header.png",
		})
		require.NoError(t, err)
		assert.NotZero(t, product.ID)
		assert.Equal(t, "Novo Jogo", product.Title)
		assert.Equal(t, model.DefaultClassification, product.Classification)
		assert.Equal(t, model.StringList{"RPG"}, product.Categories)
		assert.Equal(t, model.StringList{"https://video.example.com/1"}, product.TrailerURLs)
		assert.Equal(t, cover, product.CoverImageURL)
		assert.Equal(t, "https://cdn.example.com/header.png", product.HeaderImageURL)

		count, err := repo.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, ok, err := productCache.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestProductService_ExportCatalog(t *testing.T) {
	svc, repo, _ := setupProductServiceTest(t)
	seedCatalog(t, repo)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCatalog(&buf))

	imported, err := ReadCatalogSheet(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, imported.Skipped)
	require.Len(t, imported.Products, len(db.SampleProducts()))

	first := imported.Products[0]
	assert.Equal(t, "Lendas de Aurora", first.Title)
	assert.InDelta(t, 199.90, first.Price, 0.001)
	require.NotNil(t, first.OldPrice)
	assert.Equal(t, model.StringList{"Aventura", "RPG"}, first.Categories)
	assert.Equal(t, model.StringList{"Crônicas do Abismo", "Reinos em Guerra"}, first.RelatedGameNames)
}

func TestReadCatalogSheet_SkipsInvalidRows(t *testing.T) {
	products := []model.Product{
		{Title: "Valido", Price: 10, Categories: model.StringList{"RPG"}},
		{Title: "Sem categoria", Price: 10},
		{Title: "", Price: 10, Categories: model.StringList{"RPG"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalogSheet(&buf, products))

	imported, err := ReadCatalogSheet(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, imported.Skipped)
	require.Len(t, imported.Products, 1)
	assert.Equal(t, "Valido", imported.Products[0].Title)
	assert.Equal(t, model.DefaultClassification, imported.Products[0].Classification)
}

func TestReadCatalogSheet_NotAWorkbook(t *testing.T) {
	_, err := ReadCatalogSheet(strings.NewReader("plain text"))
	assert.Error(t, err)
}
