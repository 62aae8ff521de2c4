package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ikkim/salonbook-backend/internal/app/model"
	"github.com/ikkim/salonbook-backend/pkg/logger"
	"gorm.io/gorm"
)

// BusinessFilter is plain offset/limit pagination; a zero Limit yields an empty page.
type BusinessFilter struct {
	Skip       int
	Limit      int
	ActiveOnly bool
}

// BusinessSession is a unit of work against the businesses table.
// Staged records and column updates become visible to other sessions only after Commit.
type BusinessSession interface {
	Add(business *model.Business)
	FindByID(ctx context.Context, id uint) (*model.Business, error)
	Find(ctx context.Context, filter BusinessFilter) ([]model.Business, error)
	UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Refresh(ctx context.Context, business *model.Business) error
}

// SessionFactory opens a new session; one per request.
type SessionFactory func() BusinessSession

type businessSession struct {
	db      *gorm.DB
	tx      *gorm.DB
	pending []*model.Business
}

func NewBusinessSession(db *gorm.DB) BusinessSession {
	return &businessSession{db: db}
}

func NewSessionFactory(db *gorm.DB) SessionFactory {
	return func() BusinessSession {
		return NewBusinessSession(db)
	}
}

// conn reads through the open transaction when there is one.
func (s *businessSession) conn(ctx context.Context) *gorm.DB {
	if s.tx != nil {
		return s.tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *businessSession) begin(ctx context.Context) (*gorm.DB, error) {
	if s.tx != nil {
		return s.tx.WithContext(ctx), nil
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin business transaction", tx.Error)
		return nil, tx.Error
	}
	s.tx = tx
	return tx, nil
}

func (s *businessSession) Add(business *model.Business) {
	s.pending = append(s.pending, business)
}

func (s *businessSession) FindByID(ctx context.Context, id uint) (*model.Business, error) {
	logger.Debug("Finding business by ID", map[string]interface{}{
		"business_id": id,
	})

	var business model.Business
	if err := s.conn(ctx).First(&business, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Failed to find business", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, err
	}
	return &business, nil
}

func (s *businessSession) Find(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	logger.Debug("Finding businesses", map[string]interface{}{
		"skip":        filter.Skip,
		"limit":       filter.Limit,
		"active_only": filter.ActiveOnly,
	})

	query := s.conn(ctx).Model(&model.Business{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	businesses := make([]model.Business, 0)
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&businesses).Error; err != nil {
		logger.Error("Failed to find businesses", err, map[string]interface{}{
			"skip":  filter.Skip,
			"limit": filter.Limit,
		})
		return nil, err
	}

	logger.Debug("Businesses found", map[string]interface{}{
		"count": len(businesses),
	})
	return businesses, nil
}

func (s *businessSession) UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	logger.Debug("Updating business columns", map[string]interface{}{
		"business_id": id,
		"columns":     columnNames(columns),
	})

	return tx.Model(&model.Business{}).Where("id = ?", id).Updates(columns).Error
}

func (s *businessSession) Delete(ctx context.Context, id uint) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	logger.Debug("Deleting business from database", map[string]interface{}{
		"business_id": id,
	})

	return tx.Delete(&model.Business{}, id).Error
}

func (s *businessSession) Commit(ctx context.Context) error {
	if s.tx == nil && len(s.pending) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	for _, business := range s.pending {
		if err := tx.Create(business).Error; err != nil {
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.tx = nil
	s.pending = nil
	return nil
}

func (s *businessSession) Rollback(ctx context.Context) error {
	s.pending = nil
	if s.tx == nil {
		return nil
	}

	err := s.tx.Rollback().Error
	s.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("Failed to roll back business transaction", err)
		return err
	}
	return nil
}

func (s *businessSession) Refresh(ctx context.Context, business *model.Business) error {
	var fresh model.Business
	if err := s.conn(ctx).First(&fresh, business.ID).Error; err != nil {
		return err
	}
	*business = fresh
	return nil
}

func columnNames(columns map[string]interface{}) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	return names
}
