package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/salonbook-backend/config"
	"github.com/ikkim/salonbook-backend/internal/app/controller"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	"github.com/ikkim/salonbook-backend/internal/db"
	"github.com/ikkim/salonbook-backend/internal/middleware"
	"github.com/ikkim/salonbook-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(ctx context.Context) error {
	return p.err
}

func setupRouterTest(t *testing.T, pinger Pinger) *gin.Engine {
	logger.Initialize(logger.Config{Level: "error", Format: "json", Output: io.Discard})

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://book.example.com"}},
	}

	businessService := service.NewBusinessService()
	newSession := repository.NewSessionFactory(testDB)

	r := NewRouter(
		controller.NewBusinessController(businessService, newSession),
		nil,
		middleware.BusinessContext(businessService, newSession),
		pinger,
		cfg,
	)
	engine, err := r.Setup()
	require.NoError(t, err)
	return engine
}

func TestRouter_Health(t *testing.T) {
	engine := setupRouterTest(t, fakePinger{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	engine = setupRouterTest(t, fakePinger{err: errors.New("connection refused")})
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	engine := setupRouterTest(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/businesses", nil)
	req.Header.Set("Origin", "https://book.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://book.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.BusinessIDHeader)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/businesses", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_BusinessLifecycle(t *testing.T) {
	engine := setupRouterTest(t, nil)

	body, _ := json.Marshal(map[string]interface{}{"name": "Glow Studio"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/businesses", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Business struct {
			ID uint `json:"id"`
		} `json:"business"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/business/current", nil)
	req.Header.Set(middleware.BusinessIDHeader, fmt.Sprint(created.Business.ID))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/businesses/%d", created.Business.ID), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/business/current", nil)
	req.Header.Set(middleware.BusinessIDHeader, fmt.Sprint(created.Business.ID))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// logo uploads are not routed without storage
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/businesses/%d/logo/presigned-url", created.Business.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
