package service

import (
	"context"
	"errors"
	"sort"

	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	apperrors "github.com/ikkim/salonbook-backend/internal/errors"
	"github.com/ikkim/salonbook-backend/pkg/logger"
	"github.com/ikkim/salonbook-backend/pkg/optional"
)

var (
	ErrDuplicateBusinessName  = errors.New("Business with this name may already exist")
	ErrBusinessUpdateConflict = errors.New("Update failed due to constraint violation")
)

// BusinessCreateInput is a validated creation payload. Empty Timezone and
// Currency fall back to model.DefaultTimezone and model.DefaultCurrency.
type BusinessCreateInput struct {
	Name        string
	LogoURL     *string
	Description *string
	Phone       *string
	Email       *string
	Website     *string
	Address     *string
	Timezone    string
	Currency    string
	Branding    *model.BusinessBranding
	Policy      *model.BusinessPolicy
}

// BusinessMutation is a partial update. Absent fields are left untouched and
// explicit nulls clear the column. is_active only changes through
// DeleteBusiness and ActivateBusiness.
type BusinessMutation struct {
	Name        optional.Value[string]
	LogoURL     optional.Value[string]
	Description optional.Value[string]
	Phone       optional.Value[string]
	Email       optional.Value[string]
	Website     optional.Value[string]
	Address     optional.Value[string]
	Timezone    optional.Value[string]
	Currency    optional.Value[string]
	Branding    optional.Value[model.BusinessBranding]
	Policy      optional.Value[model.BusinessPolicy]
}

// Columns returns the provided fields keyed by column name; nil marks an explicit null.
func (m BusinessMutation) Columns() map[string]interface{} {
	columns := make(map[string]interface{})
	addColumn(columns, "name", m.Name)
	addColumn(columns, "logo_url", m.LogoURL)
	addColumn(columns, "description", m.Description)
	addColumn(columns, "phone", m.Phone)
	addColumn(columns, "email", m.Email)
	addColumn(columns, "website", m.Website)
	addColumn(columns, "address", m.Address)
	addColumn(columns, "timezone", m.Timezone)
	addColumn(columns, "currency", m.Currency)
	addColumn(columns, "branding", m.Branding)
	addColumn(columns, "policy", m.Policy)
	return columns
}

func addColumn[T any](columns map[string]interface{}, name string, v optional.Value[T]) {
	if !v.IsPresent() {
		return
	}
	if value, ok := v.Get(); ok {
		columns[name] = value
		return
	}
	columns[name] = nil
}

type BusinessListOptions struct {
	Skip       int
	Limit      int
	ActiveOnly bool
}

// BusinessService holds no state; one instance serves every request.
// Not-found is reported as a nil business (or false from DeleteBusiness), never as an error.
type BusinessService interface {
	CreateBusiness(ctx context.Context, session repository.BusinessSession, input BusinessCreateInput) (*model.Business, error)
	GetBusiness(ctx context.Context, session repository.BusinessSession, id uint) (*model.Business, error)
	ListBusinesses(ctx context.Context, session repository.BusinessSession, opts BusinessListOptions) ([]model.Business, error)
	UpdateBusiness(ctx context.Context, session repository.BusinessSession, id uint, mutation BusinessMutation) (*model.Business, error)
	DeleteBusiness(ctx context.Context, session repository.BusinessSession, id uint, softDelete bool) (bool, error)
	ActivateBusiness(ctx context.Context, session repository.BusinessSession, id uint) (*model.Business, error)
}

type businessService struct{}

func NewBusinessService() BusinessService {
	return &businessService{}
}

func (s *businessService) CreateBusiness(ctx context.Context, session repository.BusinessSession, input BusinessCreateInput) (*model.Business, error) {
	business := &model.Business{
		Name:        input.Name,
		LogoURL:     input.LogoURL,
		Description: input.Description,
		Phone:       input.Phone,
		Email:       input.Email,
		Website:     input.Website,
		Address:     input.Address,
		Timezone:    input.Timezone,
		Currency:    input.Currency,
		Branding:    input.Branding,
		Policy:      input.Policy,
		IsActive:    true,
	}
	if business.Timezone == "" {
		business.Timezone = model.DefaultTimezone
	}
	if business.Currency == "" {
		business.Currency = model.DefaultCurrency
	}

	session.Add(business)
	if err := commitAndRefresh(ctx, session, business); err != nil {
		rollback(ctx, session)
		if apperrors.IsConstraintViolation(err) {
			logger.Error("Failed to create business due to integrity constraint", err, map[string]interface{}{
				"name": input.Name,
			})
			return nil, ErrDuplicateBusinessName
		}
		logger.Error("Failed to create business", err, map[string]interface{}{
			"name": input.Name,
		})
		return nil, err
	}

	logger.Info("Business created successfully", map[string]interface{}{
		"business_id":   business.ID,
		"business_name": business.Name,
	})
	return business, nil
}

func (s *businessService) GetBusiness(ctx context.Context, session repository.BusinessSession, id uint) (*model.Business, error) {
	business, err := session.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get business", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, err
	}

	if business == nil {
		logger.Warn("Business not found", map[string]interface{}{
			"business_id": id,
		})
		return nil, nil
	}
	return business, nil
}

func (s *businessService) ListBusinesses(ctx context.Context, session repository.BusinessSession, opts BusinessListOptions) ([]model.Business, error) {
	businesses, err := session.Find(ctx, repository.BusinessFilter{
		Skip:       opts.Skip,
		Limit:      opts.Limit,
		ActiveOnly: opts.ActiveOnly,
	})
	if err != nil {
		logger.Error("Failed to get businesses", err, map[string]interface{}{
			"skip":  opts.Skip,
			"limit": opts.Limit,
		})
		return nil, err
	}
	if businesses == nil {
		businesses = []model.Business{}
	}

	logger.Info("Retrieved businesses", map[string]interface{}{
		"count":       len(businesses),
		"skip":        opts.Skip,
		"limit":       opts.Limit,
		"active_only": opts.ActiveOnly,
	})
	return businesses, nil
}

func (s *businessService) UpdateBusiness(ctx context.Context, session repository.BusinessSession, id uint, mutation BusinessMutation) (*model.Business, error) {
	business, err := s.GetBusiness(ctx, session, id)
	if err != nil || business == nil {
		return nil, err
	}

	columns := mutation.Columns()
	if len(columns) == 0 {
		return business, nil
	}

	err = session.UpdateColumns(ctx, id, columns)
	if err == nil {
		err = commitAndRefresh(ctx, session, business)
	}
	if err != nil {
		rollback(ctx, session)
		if apperrors.IsConstraintViolation(err) {
			logger.Error("Failed to update business due to integrity constraint", err, map[string]interface{}{
				"business_id": id,
			})
			return nil, ErrBusinessUpdateConflict
		}
		logger.Error("Failed to update business", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, err
	}

	logger.Info("Business updated successfully", map[string]interface{}{
		"business_id":    id,
		"updated_fields": sortedKeys(columns),
	})
	return business, nil
}

func (s *businessService) DeleteBusiness(ctx context.Context, session repository.BusinessSession, id uint, softDelete bool) (bool, error) {
	business, err := s.GetBusiness(ctx, session, id)
	if err != nil {
		return false, err
	}
	if business == nil {
		return false, nil
	}

	if softDelete {
		err = session.UpdateColumns(ctx, id, map[string]interface{}{"is_active": false})
	} else {
		err = session.Delete(ctx, id)
	}
	if err == nil {
		err = session.Commit(ctx)
	}
	if err != nil {
		rollback(ctx, session)
		logger.Error("Failed to delete business", err, map[string]interface{}{
			"business_id": id,
			"soft_delete": softDelete,
		})
		return false, err
	}

	if softDelete {
		logger.Info("Business soft deleted", map[string]interface{}{"business_id": id})
	} else {
		logger.Info("Business hard deleted", map[string]interface{}{"business_id": id})
	}
	return true, nil
}

func (s *businessService) ActivateBusiness(ctx context.Context, session repository.BusinessSession, id uint) (*model.Business, error) {
	business, err := s.GetBusiness(ctx, session, id)
	if err != nil || business == nil {
		return nil, err
	}

	if business.IsActive {
		logger.Warn("Business is already active", map[string]interface{}{
			"business_id": id,
		})
		return business, nil
	}

	err = session.UpdateColumns(ctx, id, map[string]interface{}{"is_active": true})
	if err == nil {
		err = commitAndRefresh(ctx, session, business)
	}
	if err != nil {
		rollback(ctx, session)
		logger.Error("Failed to activate business", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, err
	}

	logger.Info("Business reactivated", map[string]interface{}{"business_id": id})
	return business, nil
}

func commitAndRefresh(ctx context.Context, session repository.BusinessSession, business *model.Business) error {
	if err := session.Commit(ctx); err != nil {
		return err
	}
	return session.Refresh(ctx, business)
}

// rollback discards the failed write. The write error is what the caller reports.
func rollback(ctx context.Context, session repository.BusinessSession) {
	if err := session.Rollback(ctx); err != nil {
		logger.Error("Failed to roll back business session", err)
	}
}

func sortedKeys(columns map[string]interface{}) []string {
	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
