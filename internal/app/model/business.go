package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	DefaultTimezone     = "UTC"
	DefaultCurrency     = "USD"
	DefaultLogoPosition = "center"
)

// SupportedCurrencies lists the currency codes a business may bill in.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "CNY", "INR"}

// BusinessBranding is the booking portal look, stored as an embedded JSON document.
type BusinessBranding struct {
	PrimaryColor   *string `json:"primary_color,omitempty" binding:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondary_color,omitempty" binding:"omitempty,hexcolor"`
	LogoPosition   *string `json:"logo_position,omitempty" binding:"omitempty,max=50"`
	CustomCSS      *string `json:"custom_css,omitempty"`
}

// BusinessPolicy holds booking rules, stored as an embedded JSON document.
type BusinessPolicy struct {
	MinLeadTimeHours        int      `json:"min_lead_time_hours" binding:"min=0"`
	MaxLeadTimeDays         int      `json:"max_lead_time_days" binding:"min=1"`
	CancellationWindowHours int      `json:"cancellation_window_hours" binding:"min=0"`
	DepositRequired         bool     `json:"deposit_required"`
	NoShowFee               *float64 `json:"no_show_fee" binding:"omitempty,min=0"`
	LateArrivalGraceMinutes int      `json:"late_arrival_grace_minutes" binding:"min=0"`
}

// DefaultBusinessPolicy returns the policy applied when a client sends an empty policy object.
func DefaultBusinessPolicy() BusinessPolicy {
	return BusinessPolicy{
		MinLeadTimeHours:        1,
		MaxLeadTimeDays:         90,
		CancellationWindowHours: 6,
		DepositRequired:         false,
		LateArrivalGraceMinutes: 15,
	}
}

// UnmarshalJSON fills omitted policy keys with their defaults.
func (p *BusinessPolicy) UnmarshalJSON(data []byte) error {
	type plain BusinessPolicy
	out := plain(DefaultBusinessPolicy())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = BusinessPolicy(out)
	return nil
}

func (b BusinessBranding) Value() (driver.Value, error) {
	return marshalDocument(b)
}

func (b *BusinessBranding) Scan(value interface{}) error {
	return scanDocument(value, b)
}

func (BusinessBranding) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return documentDataType(db)
}

func (p BusinessPolicy) Value() (driver.Value, error) {
	return marshalDocument(p)
}

func (p *BusinessPolicy) Scan(value interface{}) error {
	return scanDocument(value, p)
}

func (BusinessPolicy) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return documentDataType(db)
}

func marshalDocument(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func scanDocument(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported document type %T", value)
	}
}

func documentDataType(db *gorm.DB) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

// Business is a tenant of the scheduling application, e.g. a salon.
type Business struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_businesses_active_name,where:is_active = true" json:"name"`

	LogoURL     *string `gorm:"type:varchar(500)" json:"logo_url"`
	Description *string `gorm:"type:text" json:"description"`
	Phone       *string `gorm:"type:varchar(50)" json:"phone"`
	Email       *string `gorm:"type:varchar(255)" json:"email"`
	Website     *string `gorm:"type:varchar(500)" json:"website"`
	Address     *string `gorm:"type:text" json:"address"`

	Timezone string `gorm:"type:varchar(50);not null;default:'UTC'" json:"timezone"`
	Currency string `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`

	Branding *BusinessBranding `json:"branding"`
	Policy   *BusinessPolicy   `json:"policy"`

	// Only delete and activate change this flag.
	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Business) TableName() string {
	return "businesses"
}

// BeforeCreate fills the store defaults for values left blank by the caller.
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.Timezone == "" {
		b.Timezone = DefaultTimezone
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	return nil
}
