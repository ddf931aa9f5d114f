package repository

import (
	"context"

	"github.com/campusevents/campus-events/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID uint) (*models.Booking, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	CountByEvent(ctx context.Context, tx *gorm.DB, eventID uint) (int64, error)
	CountByEvents(ctx context.Context, eventIDs []uint) (map[uint]int64, error)
	SetTicketCode(ctx context.Context, bookingID uint, code string) error
	WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// WithinTx runs fn in a database transaction; returning an error rolls it back.
func (r *bookingRepository) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Event").First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID uint) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByUser returns the user's bookings, newest first, with their events loaded.
func (r *bookingRepository) FindByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) CountByEvent(ctx context.Context, tx *gorm.DB, eventID uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) CountByEvents(ctx context.Context, eventIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID uint
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.EventID] = row.Total
	}
	return counts, nil
}

// SetTicketCode assigns a code only when the booking does not have one yet.
func (r *bookingRepository) SetTicketCode(ctx context.Context, bookingID uint, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND ticket_code IS NULL", bookingID).
		Update("ticket_code", code).Error
}
