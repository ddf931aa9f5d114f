package models

import "time"

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Location    string    `gorm:"type:varchar(200);not null" json:"location"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	CreatedBy   uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`

	Creator  *User     `gorm:"foreignKey:CreatedBy" json:"-"`
	Bookings []Booking `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}
