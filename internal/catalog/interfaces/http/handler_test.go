package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/catalog/application"
	"github.com/wyfcoding/musicstore/internal/catalog/domain"
	catalogredis "github.com/wyfcoding/musicstore/internal/catalog/infrastructure/persistence/redis"
	"github.com/wyfcoding/musicstore/pkg/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type products map[string]*domain.Product

func (p products) Save(_ context.Context, product *domain.Product) error {
	p[product.ID] = product
	return nil
}

func (p products) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if product, ok := p[id]; ok {
		return product, nil
	}
	return nil, domain.ErrProductNotFound
}

func (p products) GetByIDs(context.Context, []string) (map[string]*domain.Product, error) {
	return p, nil
}

func (p products) List(_ context.Context, filter domain.ProductFilter, _, _ int) ([]*domain.Product, int64, error) {
	var out []*domain.Product
	for _, product := range p {
		if filter.Category == "" || product.Category == filter.Category {
			out = append(out, product)
		}
	}
	return out, int64(len(out)), nil
}

func (p products) Delete(_ context.Context, id string) error {
	delete(p, id)
	return nil
}

type categories struct{}

func (categories) List(context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{Name: "ギター", SubCategories: []string{"Fender"}}}, nil
}
func (categories) Save(context.Context, *domain.Category) error { return nil }
func (categories) Delete(context.Context, string) error         { return nil }

type noEvents struct{}

func (noEvents) Publish(context.Context, string, string, any) error { return nil }

func newRouter(t *testing.T, repo products) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	categoryCache := catalogredis.NewCategoryCache(cache.NewFromClient(client), time.Minute)

	h := NewCatalogHandler(
		application.NewCatalogCommandService(repo, categories{}, categoryCache, noEvents{}),
		application.NewCatalogQueryService(repo, categories{}, categoryCache),
	)
	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPublicCatalogRoutes(t *testing.T) {
	repo := products{
		"p1": {ID: "p1", Name: "Stratocaster", Price: 150000, Stock: 2, Category: "ギター"},
		"p2": {ID: "p2", Name: "Cajon", Price: 12000, Stock: 1, Category: "ドラム"},
	}
	r := newRouter(t, repo)

	rec := send(r, http.MethodGet, "/api/v1/products?category=ギター", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Stratocaster")
	assert.NotContains(t, rec.Body.String(), "Cajon")

	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/api/v1/products/p2", "").Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/api/v1/products/nope", "").Code)

	rec = send(r, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fender")
}

func TestAdminProductRoutes(t *testing.T) {
	repo := products{}
	r := newRouter(t, repo)

	rec := send(r, http.MethodPost, "/api/v1/admin/products", `{"name":"Les Paul","price":250000,"stock":1,"category":"ギター"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, repo, 1)

	rec = send(r, http.MethodPost, "/api/v1/admin/products", `{"name":"Les Paul","price":250000,"stock":-1,"category":"ギター"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodGet, "/api/v1/admin/products/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}
