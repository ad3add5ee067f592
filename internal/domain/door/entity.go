// internal/domain/door/entity.go
package door

import "time"

// Direction tells whether a card holder walked in or out
type Direction string

const (
	DirectionEntrance Direction = "entrance"
	DirectionExit     Direction = "exit"
)

// Status is reported back to the terminal after an open request
type Status string

const (
	StatusOpened Status = "opened"
	StatusFailed Status = "failed"
)

// Event represents one door passage. Raw card codes are never stored.
type Event struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Fingerprint  string    `gorm:"not null;size:64;index:idx_door_events_fingerprint_created,priority:1" json:"fingerprint"`
	CustomerID   string    `gorm:"size:50" json:"customer_id"`
	CustomerName string    `gorm:"size:255" json:"customer_name"`
	Direction    Direction `gorm:"not null;size:10" json:"direction"`
	CreatedAt    time.Time `gorm:"index:idx_door_events_fingerprint_created,priority:2" json:"created_at"`
}

// TableName returns the table name for Event
func (Event) TableName() string {
	return "door_events"
}

// Next returns the direction that follows d
func (d Direction) Next() Direction {
	if d == DirectionEntrance {
		return DirectionExit
	}
	return DirectionEntrance
}
