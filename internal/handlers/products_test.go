package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-photoshoot-gateway/internal/config"
	"ai-photoshoot-gateway/internal/handlers"
	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/studio"
	"ai-photoshoot-gateway/internal/supabase"
)

func productsRouter(t *testing.T, studioURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := studio.NewClient(studioURL, 5*time.Second)
	h := handlers.NewProductsHandler(client, nil, logger.NewNop())

	router := gin.New()
	api := router.Group("/api/v1", fakeAuth("user-1"))
	api.GET("/products", h.ListProducts)
	api.POST("/products", h.CreateProduct)
	return router
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestProductsHandler_ListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products/get-all-products", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]studio.Product{{ID: "p2"}, {ID: "p1"}})
	}))
	defer server.Close()
	router := productsRouter(t, server.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/products", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var products []studio.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 2)
}

func TestProductsHandler_ListProducts_EmptyNotNull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer server.Close()
	router := productsRouter(t, server.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/products", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestProductsHandler_CreateProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/create":
			require.NoError(t, r.ParseMultipartForm(32<<20))
			assert.Equal(t, "Perfume", r.FormValue("product_type"))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "bottle.png", header.Filename)
			json.NewEncoder(w).Encode(studio.Product{ID: "p1", ProductType: "Perfume"})
		case "/api/products/remove-background":
			json.NewEncoder(w).Encode(studio.Product{
				ID:                       "p1",
				ProductType:              "Perfume",
				ProductImageBgRemovedURL: "https://x/bg.png",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	router := productsRouter(t, server.URL)

	body, contentType := multipartBody(t, map[string]string{"product_type": "Perfume"}, "file", "bottle.png", "fake-image-bytes")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var product studio.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, "https://x/bg.png", product.ProductImageBgRemovedURL)
}

func TestProductsHandler_CreateProduct_PublishesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/create":
			json.NewEncoder(w).Encode(studio.Product{ID: "p1", ProductType: "Perfume"})
		case "/api/products/remove-background":
			json.NewEncoder(w).Encode(studio.Product{ID: "p1", ProductImageBgRemovedURL: "https://x/bg.png"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	var mu sync.Mutex
	var events []map[string]interface{}
	supabaseServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var row map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		mu.Lock()
		events = append(events, row)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer supabaseServer.Close()

	supabaseClient, err := supabase.NewClient(&config.Config{
		SupabaseURL:            supabaseServer.URL,
		SupabasePublishableKey: "test-key",
	})
	require.NoError(t, err)
	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	gin.SetMode(gin.TestMode)
	client := studio.NewClient(server.URL, 5*time.Second)
	h := handlers.NewProductsHandler(client, realtimeClient, logger.NewNop())
	router := gin.New()
	router.POST("/api/v1/products", fakeAuth("user-1"), h.CreateProduct)

	body, contentType := multipartBody(t, map[string]string{"product_type": "Perfume"}, "file", "bottle.png", "x")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	mu.Lock()
	defer mu.Unlock()
	// Two stage transitions plus the final product_ready event.
	require.Len(t, events, 3)
	last := events[2]
	assert.Equal(t, "product_ready", last["event"])
	assert.Equal(t, "product:p1", last["channel"])
}

func TestProductsHandler_CreateProduct_MissingType(t *testing.T) {
	router := productsRouter(t, "http://studio.invalid")

	body, contentType := multipartBody(t, nil, "file", "bottle.png", "x")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "product_type is required")
}

func TestProductsHandler_CreateProduct_NoImage(t *testing.T) {
	router := productsRouter(t, "http://studio.invalid")

	body, contentType := multipartBody(t, map[string]string{"product_type": "Perfume"}, "", "", "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no product image provided")
}

func TestProductsHandler_CreateProduct_FromImageURL(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote-image-bytes"))
	}))
	defer imageServer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/create":
			json.NewEncoder(w).Encode(studio.Product{ID: "p1", ProductType: "Perfume"})
		case "/api/products/remove-background":
			json.NewEncoder(w).Encode(studio.Product{ID: "p1", ProductImageBgRemovedURL: "https://x/bg.png"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	router := productsRouter(t, server.URL)

	body, contentType := multipartBody(t, map[string]string{
		"product_type": "Perfume",
		"image_url":    imageServer.URL + "/product.png",
	}, "", "", "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
