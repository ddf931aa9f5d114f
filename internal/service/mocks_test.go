package service

import (
	"context"
	"sync"

	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/ticketing"
	"gorm.io/gorm"
)

// --- Mock EventRepository ---

type mockEventRepo struct {
	createFn     func(ctx context.Context, e *models.Event) error
	findByIDFn   func(ctx context.Context, id uint) (*models.Event, error)
	findAllFn    func(ctx context.Context) ([]models.Event, error)
	forUpdateIDs []uint
}

func (m *mockEventRepo) Create(ctx context.Context, e *models.Event) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	e.ID = 1
	return nil
}
func (m *mockEventRepo) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockEventRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error) {
	m.forUpdateIDs = append(m.forUpdateIDs, id)
	return m.findByIDFn(ctx, id)
}
func (m *mockEventRepo) FindAll(ctx context.Context) ([]models.Event, error) {
	return m.findAllFn(ctx)
}

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	createFn        func(ctx context.Context, b *models.Booking) error
	findByIDFn      func(ctx context.Context, id uint) (*models.Booking, error)
	findExistingFn  func(ctx context.Context, userID, eventID uint) (*models.Booking, error)
	findByUserFn    func(ctx context.Context, userID uint) ([]models.Booking, error)
	countFn         func(ctx context.Context, eventID uint) (int64, error)
	countByEventsFn func(ctx context.Context, ids []uint) (map[uint]int64, error)
	setCodeFn       func(ctx context.Context, bookingID uint, code string) error

	created []*models.Booking
	txCalls int
}

func (m *mockBookingRepo) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	m.txCalls++
	return fn(nil)
}
func (m *mockBookingRepo) Create(ctx context.Context, tx *gorm.DB, b *models.Booking) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, b); err != nil {
			return err
		}
	}
	if b.ID == 0 {
		b.ID = uint(len(m.created) + 1)
	}
	m.created = append(m.created, b)
	return nil
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) FindByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID uint) (*models.Booking, error) {
	if m.findExistingFn != nil {
		return m.findExistingFn(ctx, userID, eventID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockBookingRepo) FindByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	return m.findByUserFn(ctx, userID)
}
func (m *mockBookingRepo) CountByEvent(ctx context.Context, tx *gorm.DB, eventID uint) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, eventID)
	}
	return 0, nil
}
func (m *mockBookingRepo) CountByEvents(ctx context.Context, ids []uint) (map[uint]int64, error) {
	if m.countByEventsFn != nil {
		return m.countByEventsFn(ctx, ids)
	}
	return map[uint]int64{}, nil
}
func (m *mockBookingRepo) SetTicketCode(ctx context.Context, bookingID uint, code string) error {
	return m.setCodeFn(ctx, bookingID, code)
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{byID: map[uint]*models.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.byID[u.ID] = u
	return nil
}
func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

// --- Mock TicketGateway ---

type mockGateway struct {
	emailEnabled   bool
	checkinEnabled bool
	qrFn           func(ctx context.Context, code string) (string, error)
	sendFn         func(ctx context.Context, req ticketing.EmailRequest) error
	checkinFn      func(ctx context.Context, code string, eventID uint) (*ticketing.CheckinResult, error)
}

func (m *mockGateway) EmailEnabled() bool   { return m.emailEnabled }
func (m *mockGateway) CheckinEnabled() bool { return m.checkinEnabled }
func (m *mockGateway) GenerateQR(ctx context.Context, code string) (string, error) {
	return m.qrFn(ctx, code)
}
func (m *mockGateway) SendEmail(ctx context.Context, req ticketing.EmailRequest) error {
	return m.sendFn(ctx, req)
}
func (m *mockGateway) ValidateCheckin(ctx context.Context, code string, eventID uint) (*ticketing.CheckinResult, error) {
	return m.checkinFn(ctx, code, eventID)
}

// --- Mock TicketDeliverer ---

type mockDeliverer struct {
	deliverFn func(ctx context.Context, user *models.User, b *models.Booking) error
	calls     int
}

func (m *mockDeliverer) Deliver(ctx context.Context, user *models.User, b *models.Booking) error {
	m.calls++
	if m.deliverFn != nil {
		return m.deliverFn(ctx, user, b)
	}
	return nil
}

// --- Recording audit.Logger ---

type auditRecord struct {
	action string
	userID *uint
	meta   map[string]any
}

type recordingAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (r *recordingAudit) Log(ctx context.Context, action string, userID *uint, meta map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, auditRecord{action: action, userID: userID, meta: meta})
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.action)
	}
	return out
}
