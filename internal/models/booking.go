package models

import "time"

type Booking struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;index;uniqueIndex:uq_user_event_booking" json:"user_id"`
	EventID uint `gorm:"not null;index;uniqueIndex:uq_user_event_booking" json:"event_id"`
	// TicketCode is unique when present; NULLs do not collide.
	TicketCode *string   `gorm:"type:varchar(64);uniqueIndex" json:"ticket_code"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}
