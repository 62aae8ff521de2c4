package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	apperrors "github.com/ikkim/salonbook-backend/internal/errors"
	"github.com/ikkim/salonbook-backend/internal/middleware"
	"github.com/ikkim/salonbook-backend/internal/storage"
)

type UploadController struct {
	uploader        storage.Uploader
	businessService service.BusinessService
	newSession      repository.SessionFactory
	maxSize         int64
}

func NewUploadController(uploader storage.Uploader, businessService service.BusinessService, newSession repository.SessionFactory, maxSize int64) *UploadController {
	return &UploadController{
		uploader:        uploader,
		businessService: businessService,
		newSession:      newSession,
		maxSize:         maxSize,
	}
}

type LogoUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// PresignBusinessLogo returns a presigned PUT URL for a business logo.
// The client uploads the file and then stores file_url as logo_url through the update endpoint.
// POST /api/v1/businesses/:id/logo/presigned-url
func (ctrl *UploadController) PresignBusinessLogo(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseBusinessID(c)
	if !ok {
		return
	}

	var req LogoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid logo upload request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindingError(c, err)
		return
	}

	if err := storage.ValidateContentType(req.ContentType, storage.AllowedImageTypes); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}
	if err := storage.ValidateFileSize(req.Size, ctrl.maxSize); err != nil {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
		return
	}

	business, err := ctrl.businessService.GetBusiness(c.Request.Context(), ctrl.newSession(), id)
	if err != nil {
		log.Error("Failed to fetch business for logo upload", err, map[string]interface{}{
			"business_id": id,
		})
		respondStoreError(c, err, "business")
		return
	}
	if business == nil {
		apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
		return
	}

	folder := fmt.Sprintf("businesses/%d/logo", business.ID)
	response, err := ctrl.uploader.PresignUpload(c.Request.Context(), folder, req.Filename, req.ContentType, req.Size)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"business_id":  id,
			"filename":     req.Filename,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Failed to generate upload URL")
		return
	}

	log.Info("Logo upload URL generated", map[string]interface{}{
		"business_id": id,
		"key":         response.Key,
	})

	c.JSON(http.StatusOK, response)
}
