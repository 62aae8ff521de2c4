package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	apperrors "github.com/ikkim/salonbook-backend/internal/errors"
)

const (
	BusinessIDHeader = "X-Business-ID"

	businessKey = "business"
)

// BusinessContext resolves the business named by the X-Business-ID header and
// scopes the rest of the request to it. Unknown businesses get 404, inactive ones 403.
func BusinessContext(businessService service.BusinessService, newSession repository.SessionFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		raw := c.GetHeader(BusinessIDHeader)
		if raw == "" {
			apperrors.BadRequest(c, apperrors.BusinessHeaderRequired, "X-Business-ID header is required")
			return
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "X-Business-ID must be a valid integer")
			return
		}

		business, err := businessService.GetBusiness(c.Request.Context(), newSession(), uint(id))
		if err != nil {
			log.Error("Failed to establish business context", err, map[string]interface{}{
				"business_id": id,
			})
			apperrors.InternalError(c, "Failed to establish business context")
			return
		}

		if business == nil {
			log.Warn("Business not found for context", map[string]interface{}{
				"business_id": id,
			})
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
			return
		}

		if !business.IsActive {
			log.Warn("Inactive business access attempted", map[string]interface{}{
				"business_id": id,
			})
			apperrors.Forbidden(c, apperrors.BusinessInactive, "Business is inactive")
			return
		}

		log.Debug("Business context established", map[string]interface{}{
			"business_id":   business.ID,
			"business_name": business.Name,
		})
		c.Set(businessKey, business)
		c.Next()
	}
}

// GetBusinessFromContext returns the business placed by BusinessContext.
func GetBusinessFromContext(c *gin.Context) (*model.Business, bool) {
	value, exists := c.Get(businessKey)
	if !exists {
		return nil, false
	}
	business, ok := value.(*model.Business)
	return business, ok
}
