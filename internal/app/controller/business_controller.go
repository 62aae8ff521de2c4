package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	apperrors "github.com/ikkim/salonbook-backend/internal/errors"
	"github.com/ikkim/salonbook-backend/internal/middleware"
	"github.com/ikkim/salonbook-backend/pkg/optional"
)

type BusinessController struct {
	businessService service.BusinessService
	newSession      repository.SessionFactory
}

func NewBusinessController(businessService service.BusinessService, newSession repository.SessionFactory) *BusinessController {
	return &BusinessController{
		businessService: businessService,
		newSession:      newSession,
	}
}

type CreateBusinessRequest struct {
	Name        string                  `json:"name" binding:"required,min=1,max=255"`
	LogoURL     *string                 `json:"logo_url" binding:"omitempty,max=500"`
	Description *string                 `json:"description"`
	Phone       *string                 `json:"phone" binding:"omitempty,max=50"`
	Email       *string                 `json:"email" binding:"omitempty,max=255"`
	Website     *string                 `json:"website" binding:"omitempty,max=500"`
	Address     *string                 `json:"address"`
	Timezone    string                  `json:"timezone" binding:"omitempty,max=50,timezone"`
	Currency    string                  `json:"currency" binding:"omitempty,max=10,currency_code"`
	Branding    *model.BusinessBranding `json:"branding"`
	Policy      *model.BusinessPolicy   `json:"policy"`
}

// UpdateBusinessRequest only applies keys present in the body; null clears a field.
type UpdateBusinessRequest struct {
	Name        optional.Value[string]                 `json:"name" binding:"omitempty,max=255"`
	LogoURL     optional.Value[string]                 `json:"logo_url" binding:"omitempty,max=500"`
	Description optional.Value[string]                 `json:"description"`
	Phone       optional.Value[string]                 `json:"phone" binding:"omitempty,max=50"`
	Email       optional.Value[string]                 `json:"email" binding:"omitempty,max=255"`
	Website     optional.Value[string]                 `json:"website" binding:"omitempty,max=500"`
	Address     optional.Value[string]                 `json:"address"`
	Timezone    optional.Value[string]                 `json:"timezone" binding:"omitempty,max=50,timezone"`
	Currency    optional.Value[string]                 `json:"currency" binding:"omitempty,max=10,currency_code"`
	Branding    optional.Value[model.BusinessBranding] `json:"branding"`
	Policy      optional.Value[model.BusinessPolicy]   `json:"policy"`
}

type ListBusinessesQuery struct {
	Skip       int  `form:"skip,default=0" binding:"min=0"`
	Limit      int  `form:"limit,default=100" binding:"min=1,max=1000"`
	ActiveOnly bool `form:"active_only,default=true"`
}

type DeleteBusinessQuery struct {
	HardDelete bool `form:"hard_delete,default=false"`
}

func (req CreateBusinessRequest) toInput() service.BusinessCreateInput {
	branding := req.Branding
	if branding != nil && branding.LogoPosition == nil {
		position := model.DefaultLogoPosition
		branding.LogoPosition = &position
	}

	return service.BusinessCreateInput{
		Name:        req.Name,
		LogoURL:     req.LogoURL,
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Address:     req.Address,
		Timezone:    req.Timezone,
		Currency:    req.Currency,
		Branding:    branding,
		Policy:      req.Policy,
	}
}

func (req UpdateBusinessRequest) toMutation() service.BusinessMutation {
	branding := req.Branding
	if b, ok := branding.Get(); ok && b.LogoPosition == nil {
		position := model.DefaultLogoPosition
		b.LogoPosition = &position
		branding = optional.Of(b)
	}

	return service.BusinessMutation{
		Name:        req.Name,
		LogoURL:     req.LogoURL,
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Address:     req.Address,
		Timezone:    req.Timezone,
		Currency:    req.Currency,
		Branding:    branding,
		Policy:      req.Policy,
	}
}

// POST /api/v1/businesses
func (ctrl *BusinessController) CreateBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create business request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindingError(c, err)
		return
	}

	business, err := ctrl.businessService.CreateBusiness(c.Request.Context(), ctrl.newSession(), req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrDuplicateBusinessName) {
			apperrors.Conflict(c, apperrors.BusinessNameExists, err.Error())
			return
		}
		log.Error("Failed to create business", err, map[string]interface{}{
			"name": req.Name,
		})
		apperrors.InternalError(c, "Failed to create business")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"business": business,
	})
}

// GET /api/v1/businesses/:id
func (ctrl *BusinessController) GetBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseBusinessID(c)
	if !ok {
		return
	}

	business, err := ctrl.businessService.GetBusiness(c.Request.Context(), ctrl.newSession(), id)
	if err != nil {
		log.Error("Failed to fetch business", err, map[string]interface{}{
			"business_id": id,
		})
		respondStoreError(c, err, "business")
		return
	}
	if business == nil {
		apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business": business,
	})
}

// GET /api/v1/businesses
func (ctrl *BusinessController) ListBusinesses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var query ListBusinessesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.Warn("Invalid list businesses query", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindingError(c, err)
		return
	}

	businesses, err := ctrl.businessService.ListBusinesses(c.Request.Context(), ctrl.newSession(), service.BusinessListOptions{
		Skip:       query.Skip,
		Limit:      query.Limit,
		ActiveOnly: query.ActiveOnly,
	})
	if err != nil {
		log.Error("Failed to list businesses", err, nil)
		respondStoreError(c, err, "businesses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
		"skip":       query.Skip,
		"limit":      query.Limit,
	})
}

// PUT /api/v1/businesses/:id
func (ctrl *BusinessController) UpdateBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseBusinessID(c)
	if !ok {
		return
	}

	var req UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update business request", map[string]interface{}{
			"business_id": id,
			"error":       err.Error(),
		})
		respondBindingError(c, err)
		return
	}
	if name, set := req.Name.Get(); set && strings.TrimSpace(name) == "" {
		apperrors.RespondWithValidationError(c, map[string]string{"name": "min=1"})
		return
	}

	business, err := ctrl.businessService.UpdateBusiness(c.Request.Context(), ctrl.newSession(), id, req.toMutation())
	if err != nil {
		if errors.Is(err, service.ErrBusinessUpdateConflict) {
			apperrors.Conflict(c, apperrors.BusinessUpdateConflict, err.Error())
			return
		}
		log.Error("Failed to update business", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "Failed to update business")
		return
	}
	if business == nil {
		apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business": business,
	})
}

// DELETE /api/v1/businesses/:id?hard_delete=true
func (ctrl *BusinessController) DeleteBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseBusinessID(c)
	if !ok {
		return
	}

	var query DeleteBusinessQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}

	deleted, err := ctrl.businessService.DeleteBusiness(c.Request.Context(), ctrl.newSession(), id, !query.HardDelete)
	if err != nil {
		log.Error("Failed to delete business", err, map[string]interface{}{
			"business_id": id,
			"hard_delete": query.HardDelete,
		})
		respondStoreError(c, err, "business")
		return
	}
	if !deleted {
		apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// POST /api/v1/businesses/:id/activate
func (ctrl *BusinessController) ActivateBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseBusinessID(c)
	if !ok {
		return
	}

	business, err := ctrl.businessService.ActivateBusiness(c.Request.Context(), ctrl.newSession(), id)
	if err != nil {
		log.Error("Failed to activate business", err, map[string]interface{}{
			"business_id": id,
		})
		respondStoreError(c, err, "business")
		return
	}
	if business == nil {
		apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business": business,
	})
}

// GET /api/v1/business/current, behind middleware.BusinessContext
func (ctrl *BusinessController) GetCurrentBusiness(c *gin.Context) {
	business, ok := middleware.GetBusinessFromContext(c)
	if !ok {
		apperrors.BadRequest(c, apperrors.BusinessHeaderRequired, "Business context is missing")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business": business,
	})
}

func parseBusinessID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid business ID", map[string]interface{}{
			"business_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid business ID")
		return 0, false
	}
	return uint(id), true
}

func respondBindingError(c *gin.Context, err error) {
	if fields, ok := apperrors.ParseValidationError(err); ok {
		apperrors.RespondWithValidationError(c, fields)
		return
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
}

// respondStoreError maps errors that are not part of the service's error set.
func respondStoreError(c *gin.Context, err error, context string) {
	info := apperrors.ParseError(err, context)
	switch info.Code {
	case apperrors.BusinessNameExists, apperrors.ResourceAlreadyExists, apperrors.ResourceConflict:
		apperrors.Conflict(c, info.Code, info.Message)
	default:
		apperrors.InternalError(c, info.Message)
	}
}
