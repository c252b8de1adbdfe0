package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phantomcommerce/phantom-backend/config"
	"github.com/phantomcommerce/phantom-backend/internal/app/controller"
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	"github.com/phantomcommerce/phantom-backend/internal/cache"
	"github.com/phantomcommerce/phantom-backend/internal/catalog"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
	"github.com/phantomcommerce/phantom-backend/internal/router"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
	ws "github.com/phantomcommerce/phantom-backend/internal/websocket"
	"github.com/phantomcommerce/phantom-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type TestServer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Users    repository.UserRepository
	Products repository.ProductRepository
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)
	redis.SetClient(nil)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	require.NoError(t, db.SeedProducts(testDB))

	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	images := storage.NewInlineImageStore(1 << 20)
	productCache := cache.NewMemoryProductCache(time.Minute)

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	authService := service.NewAuthService(userRepo, images, nil, testSecret, 15*time.Minute, 7*24*time.Hour)
	productService := service.NewProductService(productRepo, images, productCache, catalog.NewSorter("pt-BR"))
	searchService := service.NewSearchService(productRepo, productCache)
	cartService := service.NewCartService(
		repository.NewCartRepository(testDB),
		productRepo,
		service.NewMemoryGuestCartStore(time.Hour),
		hub,
	)

	r := router.NewRouter(
		controller.NewAuthController(authService, cartService),
		controller.NewProductController(productService),
		controller.NewSearchController(searchService),
		controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins),
		controller.NewUploadController(nil),
		middleware.NewAuthMiddleware(testSecret),
		cfg,
	)

	return &TestServer{
		Router:   r.Setup(),
		DB:       testDB,
		Users:    userRepo,
		Products: productRepo,
	}
}

func (ts *TestServer) request(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func bearer(response map[string]interface{}) map[string]string {
	tokens := response["tokens"].(map[string]interface{})
	return map[string]string{"Authorization": "Bearer " + tokens["access_token"].(string)}
}

func TestCompleteShopperJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	t.Log("Step 1: Browse a category as a guest")
	w, listing := ts.request(t, http.MethodGet, "/api/v1/categories/estrategia?sort=price-asc", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := listing["products"].([]interface{})
	require.Len(t, products, 2)
	first := products[0].(map[string]interface{})
	assert.Equal(t, "Reinos em Guerra", first["title"])
	productID := uint(first["id"].(float64))

	t.Log("Step 2: Add to the guest cart")
	w, _ = ts.request(t, http.MethodPost, "/api/v1/cart/items", map[string]uint{"product_id": productID}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := w.Header().Get(middleware.GuestSessionHeader)
	_, err := uuid.Parse(session)
	require.NoError(t, err)
	guest := map[string]string{middleware.GuestSessionHeader: session}

	w, _ = ts.request(t, http.MethodPost, "/api/v1/cart/items", map[string]uint{"product_id": productID}, guest)
	require.Equal(t, http.StatusOK, w.Code)

	t.Log("Step 3: Register; the guest cart follows the new account")
	w, registered := ts.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":            "buyer@example.com",
		"password":         "password123",
		"confirm_password": "password123",
		"name":             "Comprador",
	}, guest)
	require.Equal(t, http.StatusCreated, w.Code)
	cart := registered["cart"].(map[string]interface{})
	assert.Equal(t, float64(2), cart["item_count"])
	auth := bearer(registered)

	w, current := ts.request(t, http.MethodGet, "/api/v1/cart", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), current["cart"].(map[string]interface{})["item_count"])

	t.Log("Step 4: Search and resolve")
	w, found := ts.request(t, http.MethodGet, "/api/v1/search?q=reinos", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), found["count"])

	w, resolved := ts.request(t, http.MethodGet, "/api/v1/search/resolve?q="+strconv.FormatUint(uint64(productID), 10), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/product/"+strconv.FormatUint(uint64(productID), 10), resolved["route"])

	t.Log("Step 5: Regular users cannot add games")
	w, _ = ts.request(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"title": "Proibido", "price": 10, "categories": []string{"Acao"},
	}, auth)
	assert.Equal(t, http.StatusForbidden, w.Code)

	t.Log("Step 6: Logout revokes the token")
	w, _ = ts.request(t, http.MethodPost, "/api/v1/auth/logout", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.request(t, http.MethodGet, "/api/v1/auth/me", nil, auth)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAddsGame(t *testing.T) {
	ts := setupIntegrationTest(t)

	w, _ := ts.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "admin@example.com", "password": "password123", "confirm_password": "password123", "name": "Admin",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	user, err := ts.Users.FindByEmail("admin@example.com")
	require.NoError(t, err)
	user.Role = model.RoleAdmin
	require.NoError(t, ts.Users.Update(user))

	// Role is carried in the token, so sign in again.
	w, loggedIn := ts.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "admin@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	auth := bearer(loggedIn)

	// Warm the search cache so creation has to invalidate it.
	w, _ = ts.request(t, http.MethodGet, "/api/v1/search?q=estelar", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, created := ts.request(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"title":      "Odisseia Estelar",
		"price":      119.9,
		"old_price":  149.9,
		"categories": []string{"Aventura", "Acao"},
		"platforms":  []string{"PC", "Xbox"},
		"rating":     4.5,
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code)
	product := created["product"].(map[string]interface{})
	assert.Equal(t, "Livre", product["classification"])

	w, listing := ts.request(t, http.MethodGet, "/api/v1/categories/aventura?platforms=xbox", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), listing["count"])

	w, found := ts.request(t, http.MethodGet, "/api/v1/search?q=estelar", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), found["count"])

	w, _ = ts.request(t, http.MethodGet, "/api/v1/products/export", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, w.Body.Len())
}

func TestOperationalEndpoints(t *testing.T) {
	ts := setupIntegrationTest(t)

	w, health := ts.request(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", health["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), middleware.GuestSessionHeader)

	w, _ = ts.request(t, http.MethodPost, "/api/v1/upload/presigned-url", map[string]string{
		"filename": "a.png", "content_type": "image/png",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
