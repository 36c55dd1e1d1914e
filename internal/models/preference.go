package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a JSON array of strings in a single column. Used for
// dietary restrictions and allergens so the set stays free-form.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as an empty array,
// never SQL NULL, so reads always yield a list.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// UserPreference holds the per-user profile that drives nutrition targets.
// One row per user; role is denormalized from the user's role so target
// calculation never needs a join.
type UserPreference struct {
	UserID           uint       `gorm:"primaryKey" json:"user_id"`
	Role             string     `gorm:"size:50;not null" json:"role"`
	HeightCm         *int       `json:"height_cm"`
	WeightKg         *float64   `gorm:"type:numeric(6,2)" json:"weight_kg"`
	AgeYear          *int       `json:"age_year"`
	AgeMonth         *int       `json:"age_month"`
	Hpht             *time.Time `gorm:"type:date" json:"hpht,omitempty"`
	LilaCm           *float64   `gorm:"type:numeric(5,2)" json:"lila_cm"`
	LactationPhase   *string    `gorm:"size:20" json:"lactation_phase"`
	FoodProhibitions StringList `gorm:"type:text" json:"food_prohibitions"`
	Allergens        StringList `gorm:"type:text" json:"allergens"`
	UpdatedAt        time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for GORM
func (UserPreference) TableName() string {
	return "user_preferences"
}

// HphtDateLayout is the wire format for the first day of the last
// menstrual period (hari pertama haid terakhir).
const HphtDateLayout = "2006-01-02"

// HphtString renders hpht in wire format, or nil when unset.
func (p *UserPreference) HphtString() *string {
	if p.Hpht == nil {
		return nil
	}
	s := p.Hpht.Format(HphtDateLayout)
	return &s
}

// GestationalAgeWeeks derives the current gestational age from hpht.
// It is never persisted; storing it would let it silently go stale.
func (p *UserPreference) GestationalAgeWeeks(now time.Time) *int {
	if p.Hpht == nil {
		return nil
	}
	days := int(now.Sub(*p.Hpht).Hours() / 24)
	weeks := days / 7
	if weeks < 0 {
		weeks = 0
	}
	return &weeks
}
