package repository

import (
	"fmt"
	"testing"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewProductRepository(testDB)
	return testDB, repo
}

func seedProducts(t *testing.T, repo ProductRepository) []model.Product {
	products := []model.Product{
		{Title: "Lendas de Aurora", Price: 199.90, Rating: 4.8, Categories: model.StringList{"Aventura", "RPG"}, Platforms: model.StringList{"pc"}},
		{Title: "Lendas do Norte", Price: 49.90, Rating: 3.1, Categories: model.StringList{"Aventura"}, Platforms: model.StringList{"xbox"}},
		{Title: "Turbo Drift 2", Price: 89.90, Rating: 4.1, Categories: model.StringList{"Corrida"}, Platforms: model.StringList{"pc", "playstation"}},
	}
	for i := range products {
		require.NoError(t, repo.Create(&products[i]))
	}
	return products
}

func TestProductRepository_Create(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	old := 249.90
	product := &model.Product{
		Title:      "Lendas de Aurora",
		Price:      199.90,
		OldPrice:   &old,
		Categories: model.StringList{"Aventura", "RPG"},
		Platforms:  model.StringList{"pc", "steam"},
		SystemRequirements: model.SystemRequirements{
			Minimum: model.HardwareSpec{CPU: "i5", RAM: "8 GB"},
		},
	}

	err := repo.Create(product)
	assert.NoError(t, err)
	assert.NotZero(t, product.ID)

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"Aventura", "RPG"}, found.Categories)
	assert.Equal(t, model.StringList{"pc", "steam"}, found.Platforms)
	require.NotNil(t, found.OldPrice)
	assert.InDelta(t, 249.90, *found.OldPrice, 0.001)
	assert.Equal(t, "i5", found.SystemRequirements.Minimum.CPU)
}

func TestProductRepository_FindAll(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	seeded := seedProducts(t, repo)

	found, err := repo.FindAll()
	assert.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, seeded[0].ID, found[0].ID)
}

func TestProductRepository_FindByID(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	seeded := seedProducts(t, repo)

	t.Run("Existing product", func(t *testing.T) {
		found, err := repo.FindByID(seeded[2].ID)
		assert.NoError(t, err)
		assert.Equal(t, "Turbo Drift 2", found.Title)
	})

	t.Run("Missing product", func(t *testing.T) {
		_, err := repo.FindByID(9999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestProductRepository_FindByPrice(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	seedProducts(t, repo)

	min := 50.0
	max := 100.0

	tests := []struct {
		name   string
		filter PriceFilter
		want   []string
	}{
		{name: "No bounds", filter: PriceFilter{}, want: []string{"Lendas de Aurora", "Lendas do Norte", "Turbo Drift 2"}},
		{name: "Min only", filter: PriceFilter{Min: &min}, want: []string{"Lendas de Aurora", "Turbo Drift 2"}},
		{name: "Max only", filter: PriceFilter{Max: &max}, want: []string{"Lendas do Norte", "Turbo Drift 2"}},
		{name: "Both bounds", filter: PriceFilter{Min: &min, Max: &max}, want: []string{"Turbo Drift 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByPrice(tt.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(found))
			for _, p := range found {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestProductRepository_FindByTitles(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	seedProducts(t, repo)

	t.Run("Exact titles", func(t *testing.T) {
		found, err := repo.FindByTitles([]string{"Turbo Drift 2", "Lendas de Aurora", "Inexistente"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("Empty list", func(t *testing.T) {
		found, err := repo.FindByTitles(nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Only the first titles are used", func(t *testing.T) {
		titles := make([]string, 0, MaxRelatedTitles+1)
		for i := 0; i < MaxRelatedTitles; i++ {
			titles = append(titles, fmt.Sprintf("Filler %d", i))
		}
		titles = append(titles, "Turbo Drift 2")

		found, err := repo.FindByTitles(titles)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestProductRepository_FindByTitlePrefix(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	seedProducts(t, repo)

	found, err := repo.FindByTitlePrefix("Lendas")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Lendas de Aurora", found[0].Title)
	assert.Equal(t, "Lendas do Norte", found[1].Title)

	found, err = repo.FindByTitlePrefix("lendas")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestProductRepository_BulkCreateAndCount(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	err := repo.BulkCreate(db.SampleProducts(), 2)
	require.NoError(t, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(len(db.SampleProducts())), count)

	assert.NoError(t, repo.BulkCreate(nil, 10))
}
