// Package memstore хранилище в памяти процесса с той же семантикой, что и PostgreSQL репозитории.
// Используется драйвером storage = "memory" и в тестах на конкурентность.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/promotion"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/reservation"
)

// Store общее состояние всех репозиториев
//
// Резервы разложены по машинам: у каждой машины свой мьютекс и свой список
// активных резервов, поэтому резервирование разных машин не блокирует друг друга.
type Store struct {
	// vehicles int64 -> *vehicleSlot
	vehicles sync.Map
	// tokens uuid.UUID -> int64, машина активного резерва
	tokens sync.Map

	bookingsMu    sync.RWMutex
	bookings      map[int64]*domain.Booking
	nextBookingID int64

	promotionsMu sync.RWMutex
	promotions   map[int64]*domain.Promotion
	nextPromoID  int64

	now func() time.Time
}

// vehicleSlot активные резервы одной машины
type vehicleSlot struct {
	mu     sync.Mutex
	active map[uuid.UUID]*domain.Reservation
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		bookings:   make(map[int64]*domain.Booking),
		promotions: make(map[int64]*domain.Promotion),
		now:        time.Now,
	}
}

// Bookings репозиторий бронирований
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }

// Reservations хранилище резервов машин
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s: s} }

// Promotions репозиторий промо-акций
func (s *Store) Promotions() *PromotionRepository { return &PromotionRepository{s: s} }

func (s *Store) slot(vehicleID int64) *vehicleSlot {
	if v, ok := s.vehicles.Load(vehicleID); ok {
		return v.(*vehicleSlot)
	}
	v, _ := s.vehicles.LoadOrStore(vehicleID, &vehicleSlot{active: make(map[uuid.UUID]*domain.Reservation)})
	return v.(*vehicleSlot)
}

// ReservationRepository резервы машин
// Проверка пересечения и вставка выполняются под блокировкой машины.
type ReservationRepository struct {
	s *Store
}

func (r *ReservationRepository) Reserve(ctx context.Context, vehicleID int64, start, end time.Time) (*domain.Reservation, error) {
	slot := r.s.slot(vehicleID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	for _, res := range slot.active {
		if domain.WindowsOverlap(res.StartTime, res.EndTime, start, end) {
			return nil, reservation.ErrConflict
		}
	}

	res := &domain.Reservation{
		Token:     uuid.New(),
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   end,
		CreatedAt: r.s.now(),
	}
	slot.active[res.Token] = res
	r.s.tokens.Store(res.Token, vehicleID)
	r.s.record(ctx, &slot.mu, func() {
		delete(slot.active, res.Token)
		r.s.tokens.Delete(res.Token)
	})

	out := *res
	return &out, nil
}

func (r *ReservationRepository) Release(ctx context.Context, token uuid.UUID) error {
	v, ok := r.s.tokens.Load(token)
	if !ok {
		return nil
	}

	slot := r.s.slot(v.(int64))
	slot.mu.Lock()
	defer slot.mu.Unlock()

	res, ok := slot.active[token]
	if !ok {
		return nil
	}

	now := r.s.now()
	res.ReleasedAt = &now
	delete(slot.active, token)
	r.s.tokens.Delete(token)
	r.s.record(ctx, &slot.mu, func() {
		res.ReleasedAt = nil
		slot.active[token] = res
		r.s.tokens.Store(token, res.VehicleID)
	})

	return nil
}

func (r *ReservationRepository) FindOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) ([]domain.Reservation, error) {
	slot := r.s.slot(vehicleID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	out := make([]domain.Reservation, 0)
	for _, res := range slot.active {
		if domain.WindowsOverlap(res.StartTime, res.EndTime, start, end) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })

	return out, nil
}

// BookingRepository бронирования
type BookingRepository struct {
	s *Store
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	r.s.bookingsMu.Lock()
	defer r.s.bookingsMu.Unlock()

	r.s.nextBookingID++
	now := r.s.now()
	b.ID = r.s.nextBookingID
	b.CreatedAt = now
	b.UpdatedAt = now

	stored := *b
	r.s.bookings[b.ID] = &stored
	id := b.ID
	r.s.record(ctx, &r.s.bookingsMu, func() { delete(r.s.bookings, id) })

	return b, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.s.bookingsMu.RLock()
	defer r.s.bookingsMu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	r.s.bookingsMu.RLock()
	defer r.s.bookingsMu.RUnlock()

	out := make([]*domain.Booking, 0)
	if filter.StationIDs != nil && len(filter.StationIDs) == 0 {
		return out, nil
	}

	for _, b := range r.s.bookings {
		if !matches(b, filter) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})

	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *BookingRepository) ListPendingDeposits(ctx context.Context, limit int) ([]*domain.Booking, error) {
	r.s.bookingsMu.RLock()
	defer r.s.bookingsMu.RUnlock()

	out := make([]*domain.Booking, 0)
	for _, b := range r.s.bookings {
		if b.AwaitsDeposit() {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return paginate(out, limit, 0), nil
}

// UpdateState compare-and-swap по паре (Status, DepositStatus)
func (r *BookingRepository) UpdateState(ctx context.Context, id int64, upd domain.StateUpdate) error {
	r.s.bookingsMu.Lock()
	defer r.s.bookingsMu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.Status != upd.ExpectedStatus || b.DepositStatus != upd.ExpectedDeposit {
		return booking.ErrStateConflict
	}

	prev := *b
	r.s.record(ctx, &r.s.bookingsMu, func() { *b = prev })

	b.Status = upd.Status
	b.DepositStatus = upd.DepositStatus
	b.UpdatedAt = upd.UpdatedAt

	if upd.DepositOutcomeID != nil {
		b.DepositOutcomeID = upd.DepositOutcomeID
	}
	if upd.DepositProcessedAt != nil {
		b.DepositProcessedAt = upd.DepositProcessedAt
	}
	if upd.ActualEndTime != nil {
		b.ActualEndTime = upd.ActualEndTime
	}
	if upd.ReturnOdometer != nil {
		b.ReturnOdometer = upd.ReturnOdometer
	}
	if upd.BatteryLevelAtReturn != nil {
		b.BatteryLevelAtReturn = upd.BatteryLevelAtReturn
	}
	if upd.DamageReport != nil {
		b.DamageReport = upd.DamageReport
	}
	if upd.CustomerRating != nil {
		b.CustomerRating = upd.CustomerRating
	}
	if upd.CancelReason != nil {
		b.CancelReason = upd.CancelReason
	}
	if upd.CancelledAt != nil {
		b.CancelledAt = upd.CancelledAt
	}

	return nil
}

func (r *BookingRepository) SetPaymentRef(ctx context.Context, id int64, paymentRef string) error {
	r.s.bookingsMu.Lock()
	defer r.s.bookingsMu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	prev := b.PaymentRef
	r.s.record(ctx, &r.s.bookingsMu, func() { b.PaymentRef = prev })

	ref := paymentRef
	b.PaymentRef = &ref
	b.UpdatedAt = r.s.now()

	return nil
}

// PromotionRepository промо-акции
type PromotionRepository struct {
	s *Store
}

func (r *PromotionRepository) Create(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error) {
	r.s.promotionsMu.Lock()
	defer r.s.promotionsMu.Unlock()

	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	for _, existing := range r.s.promotions {
		if existing.Code == p.Code {
			return nil, promotion.ErrDuplicateCode
		}
	}

	r.s.nextPromoID++
	now := r.s.now()
	p.ID = r.s.nextPromoID
	p.CreatedAt = now
	p.UpdatedAt = now

	stored := *p
	r.s.promotions[p.ID] = &stored
	id := p.ID
	r.s.record(ctx, &r.s.promotionsMu, func() { delete(r.s.promotions, id) })

	return p, nil
}

func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	r.s.promotionsMu.RLock()
	defer r.s.promotionsMu.RUnlock()

	code = strings.ToUpper(strings.TrimSpace(code))
	for _, p := range r.s.promotions {
		if p.Code == code {
			out := *p
			return &out, nil
		}
	}
	return nil, promotion.ErrPromotionNotFound
}

func (r *PromotionRepository) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	r.s.promotionsMu.RLock()
	defer r.s.promotionsMu.RUnlock()

	p, ok := r.s.promotions[id]
	if !ok {
		return nil, promotion.ErrPromotionNotFound
	}
	out := *p
	return &out, nil
}

func (r *PromotionRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Promotion, error) {
	r.s.promotionsMu.RLock()
	defer r.s.promotionsMu.RUnlock()

	out := make([]*domain.Promotion, 0, len(r.s.promotions))
	for _, p := range r.s.promotions {
		if activeOnly && !p.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func (r *PromotionRepository) SetActive(ctx context.Context, id int64, active bool) error {
	r.s.promotionsMu.Lock()
	defer r.s.promotionsMu.Unlock()

	p, ok := r.s.promotions[id]
	if !ok {
		return promotion.ErrPromotionNotFound
	}
	prev := p.IsActive
	r.s.record(ctx, &r.s.promotionsMu, func() { p.IsActive = prev })

	p.IsActive = active
	p.UpdatedAt = r.s.now()

	return nil
}

func matches(b *domain.Booking, f domain.BookingFilter) bool {
	if f.RenterID != nil && b.RenterID != *f.RenterID {
		return false
	}
	if f.VehicleID != nil && b.VehicleID != *f.VehicleID {
		return false
	}
	if len(f.StationIDs) > 0 && !containsID(f.StationIDs, b.StationID) {
		return false
	}
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.From != nil && !b.EndTime.After(*f.From) {
		return false
	}
	if f.To != nil && !b.StartTime.Before(*f.To) {
		return false
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate(items []*domain.Booking, limit, offset int) []*domain.Booking {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
