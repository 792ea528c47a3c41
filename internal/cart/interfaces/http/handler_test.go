package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/cart/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var catalog = map[string]domain.CartItem{
	"p1": {ID: "p1", Name: "Guitar", Price: 1000, ImageURL: "g.png"},
	"p2": {ID: "p2", Name: "Drum", Price: 500},
}

func lookup(_ context.Context, id string) (domain.CartItem, error) {
	item, ok := catalog[id]
	if !ok {
		return domain.CartItem{}, ErrProductUnavailable
	}
	return item, nil
}

type cartClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newClient(t *testing.T) *cartClient {
	r := gin.New()
	NewCartHandler(NewCookieSessions("cartItems", 0, false), lookup).RegisterRoutes(r.Group("/api/v1"))
	return &cartClient{t: t, router: r}
}

func (cc *cartClient) do(method, path, body string) (*httptest.ResponseRecorder, CartView) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cc.cookie != nil {
		req.AddCookie(cc.cookie)
	}
	rec := httptest.NewRecorder()
	cc.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "cartItems" {
			if ck.MaxAge < 0 {
				cc.cookie = nil
			} else {
				cc.cookie = ck
			}
		}
	}

	var envelope struct {
		Data CartView `json:"data"`
	}
	if rec.Code == http.StatusOK {
		require.NoError(cc.t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope.Data
}

func TestCartFlowThroughCookieMirror(t *testing.T) {
	cc := newClient(t)

	rec, v := cc.do(http.MethodPost, "/api/v1/cart/items", `{"id":"p1","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2000, v.Total)
	require.NotNil(t, cc.cookie)
	assert.Equal(t, int(domain.MirrorTTL.Seconds()), cc.cookie.MaxAge)

	raw, err := url.QueryUnescape(cc.cookie.Value)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","name":"Guitar","price":1000,"quantity":2,"imageUrl":"g.png"}]`, raw)

	_, v = cc.do(http.MethodPost, "/api/v1/cart/items", `{"id":"p1","quantity":1}`)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)

	_, v = cc.do(http.MethodPost, "/api/v1/cart/items", `{"id":"p2","quantity":1}`)
	assert.EqualValues(t, 3500, v.Total)

	_, v = cc.do(http.MethodPut, "/api/v1/cart/items/p2", `{"quantity":4}`)
	assert.EqualValues(t, 5000, v.Total)

	_, v = cc.do(http.MethodDelete, "/api/v1/cart/items/p1", "")
	assert.EqualValues(t, 2000, v.Total)

	_, v = cc.do(http.MethodGet, "/api/v1/cart", "")
	assert.EqualValues(t, 2000, v.Total)

	_, v = cc.do(http.MethodDelete, "/api/v1/cart", "")
	assert.Zero(t, v.Total)
	assert.Empty(t, v.Items)
	assert.Nil(t, cc.cookie)
}

func TestSetQuantityBelowOneRejected(t *testing.T) {
	cc := newClient(t)
	cc.do(http.MethodPost, "/api/v1/cart/items", `{"id":"p1","quantity":1}`)

	rec, _ := cc.do(http.MethodPut, "/api/v1/cart/items/p1", `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, v := cc.do(http.MethodGet, "/api/v1/cart", "")
	assert.Equal(t, 1, v.Items[0].Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	cc := newClient(t)
	rec, _ := cc.do(http.MethodPost, "/api/v1/cart/items", `{"id":"nope","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
