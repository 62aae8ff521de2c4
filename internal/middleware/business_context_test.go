package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	apperrors "github.com/ikkim/salonbook-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBusinessService answers GetBusiness from a map; other methods are unused here.
type stubBusinessService struct {
	service.BusinessService
	businesses map[uint]*model.Business
	err        error
}

func (s *stubBusinessService) GetBusiness(ctx context.Context, session repository.BusinessSession, id uint) (*model.Business, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.businesses[id], nil
}

func noSession() repository.BusinessSession {
	return nil
}

func setupBusinessContextTest(t *testing.T, svc service.BusinessService) *gin.Engine {
	router, _ := setupLoggingTest(t)
	router.GET("/current", BusinessContext(svc, noSession), func(c *gin.Context) {
		business, ok := GetBusinessFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": business.ID})
	})
	return router
}

func TestBusinessContext(t *testing.T) {
	svc := &stubBusinessService{businesses: map[uint]*model.Business{
		1: {ID: 1, Name: "Glow Studio", IsActive: true},
		2: {ID: 2, Name: "Shine Salon", IsActive: false},
	}}
	router := setupBusinessContextTest(t, svc)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "Missing header", wantCode: http.StatusBadRequest, wantErr: apperrors.BusinessHeaderRequired},
		{name: "Negative id", header: "-1", wantCode: http.StatusBadRequest, wantErr: apperrors.ValidationInvalidID},
		{name: "Unknown", header: "3", wantCode: http.StatusNotFound, wantErr: apperrors.BusinessNotFound},
		{name: "Inactive", header: "2", wantCode: http.StatusForbidden, wantErr: apperrors.BusinessInactive},
		{name: "Active", header: "1", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/current", nil)
			if tt.header != "" {
				req.Header.Set(BusinessIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				var resp apperrors.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantErr, resp.Error)
			}
		})
	}
}

func TestBusinessContext_StoreFailure(t *testing.T) {
	router := setupBusinessContextTest(t, &stubBusinessService{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/current", nil)
	req.Header.Set(BusinessIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
