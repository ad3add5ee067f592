// internal/domain/settings/entity.go
package settings

import "time"

// Well-known setting keys
const (
	KeyOFNAPIKey          = "ofn_api_key"
	KeyDistributorID      = "distributor_id"
	KeyOrderCycleID       = "order_cycle_id"
	KeyPaymentMethodID    = "payment_method_id"
	KeySessionIdleTimeout = "session_idle_timeout"
	KeyRelayPulse         = "door_relay_timeout"
)

// Setting represents a key/value row of the settings table
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Setting
func (Setting) TableName() string {
	return "settings"
}
