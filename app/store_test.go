package app_test

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"boxoffice/entities"
)

// memStore is an in-memory InventoryStore, AttendeeDirectory, TicketLedger and
// Transactor with the same atomicity as the Postgres repositories.
type memStore struct {
	lock   sync.Mutex
	txLock sync.Mutex

	performances map[uuid.UUID]entities.Performance
	attendees    map[string]entities.Attendee
	tickets      map[uuid.UUID]entities.Ticket

	// failure injection
	decrementErr error
	voidErr      error
	beforeCreate func()

	// tickets moved by Cancel, which announces the cancellation
	cancelled []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		performances: map[uuid.UUID]entities.Performance{},
		attendees:    map[string]entities.Attendee{},
		tickets:      map[uuid.UUID]entities.Ticket{},
	}
}

func (s *memStore) addPerformance(capacity int, startDate time.Time) entities.Performance {
	s.lock.Lock()
	defer s.lock.Unlock()

	p := entities.Performance{
		PerformanceID:     uuid.New(),
		Name:              "Hamlet",
		Category:          "theatre",
		Status:            entities.PerformanceStatusActive,
		StartDate:         startDate,
		ScheduleTime:      "19:30",
		TotalCapacity:     capacity,
		AvailableCapacity: capacity,
	}
	s.performances[p.PerformanceID] = p

	return p
}

func (s *memStore) available(performanceID uuid.UUID) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.performances[performanceID].AvailableCapacity
}

func (s *memStore) ticket(ticketID uuid.UUID) entities.Ticket {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.tickets[ticketID]
}

func (s *memStore) ticketsByStatus(performanceID uuid.UUID, status entities.TicketStatus) []entities.Ticket {
	s.lock.Lock()
	defer s.lock.Unlock()

	var out []entities.Ticket
	for _, t := range s.tickets {
		if t.PerformanceID == performanceID && t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID.String() < out[j].TicketID.String() })

	return out
}

func (s *memStore) PerformanceByID(ctx context.Context, performanceID uuid.UUID) (entities.Performance, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, ok := s.performances[performanceID]
	if !ok {
		return entities.Performance{}, entities.ErrPerformanceNotFound
	}

	return p, nil
}

func (s *memStore) TryDecrement(ctx context.Context, performanceID uuid.UUID) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.decrementErr != nil {
		return 0, s.decrementErr
	}

	p, ok := s.performances[performanceID]
	if !ok {
		return 0, entities.ErrPerformanceNotFound
	}
	if p.AvailableCapacity <= 0 {
		return 0, entities.ErrNoCapacity
	}

	p.AvailableCapacity--
	s.performances[performanceID] = p

	return p.AvailableCapacity, nil
}

func (s *memStore) Increment(ctx context.Context, performanceID uuid.UUID) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, ok := s.performances[performanceID]
	if !ok {
		return 0, entities.ErrPerformanceNotFound
	}

	p.AvailableCapacity++
	s.performances[performanceID] = p

	return p.AvailableCapacity, nil
}

func (s *memStore) FindOrCreate(ctx context.Context, email string) (entities.Attendee, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	normalized := entities.NormalizeEmail(email)
	if a, ok := s.attendees[normalized]; ok {
		return a, nil
	}

	a := entities.Attendee{
		AttendeeID:      uuid.New(),
		Email:           email,
		NormalizedEmail: normalized,
		CreatedAt:       time.Now().UTC(),
	}
	s.attendees[normalized] = a

	return a, nil
}

func (s *memStore) Exists(ctx context.Context, performanceID, attendeeID uuid.UUID) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.hasCountedTicket(performanceID, attendeeID), nil
}

func (s *memStore) hasCountedTicket(performanceID, attendeeID uuid.UUID) bool {
	for _, t := range s.tickets {
		if t.PerformanceID == performanceID && t.AttendeeID == attendeeID && t.Status.Counted() {
			return true
		}
	}
	return false
}

func (s *memStore) Create(ctx context.Context, ticket entities.Ticket) (entities.Ticket, error) {
	if s.beforeCreate != nil {
		s.beforeCreate()
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.performances[ticket.PerformanceID]; !ok {
		return entities.Ticket{}, entities.ErrPerformanceNotFound
	}
	if s.hasCountedTicket(ticket.PerformanceID, ticket.AttendeeID) {
		return entities.Ticket{}, entities.ErrDuplicateTicket
	}

	ticket.Status = entities.TicketStatusValid
	s.tickets[ticket.TicketID] = ticket

	return ticket, nil
}

func (s *memStore) MarkUsed(ctx context.Context, ticketID uuid.UUID, redeemedAt time.Time) (entities.Ticket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return entities.Ticket{}, entities.ErrTicketNotFound
	}
	if t.Status != entities.TicketStatusValid {
		return entities.Ticket{}, entities.ErrTicketNotValid
	}

	t.Status = entities.TicketStatusUsed
	t.RedeemedAt = &redeemedAt
	s.tickets[ticketID] = t

	return t, nil
}

func (s *memStore) Cancel(ctx context.Context, ticketID uuid.UUID, cancelledAt time.Time) (entities.CancelledTicket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return entities.CancelledTicket{}, entities.ErrTicketNotFound
	}

	previous := t.Status
	if previous != entities.TicketStatusCancelled {
		t.Status = entities.TicketStatusCancelled
		t.CancelledAt = &cancelledAt
		s.tickets[ticketID] = t
		s.cancelled = append(s.cancelled, ticketID)
	}

	return entities.CancelledTicket{Ticket: t, PreviousStatus: previous}, nil
}

func (s *memStore) Void(ctx context.Context, ticketID uuid.UUID, voidedAt time.Time) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.voidErr != nil {
		return s.voidErr
	}

	t, ok := s.tickets[ticketID]
	if !ok {
		return entities.ErrTicketNotFound
	}
	if t.Status == entities.TicketStatusValid {
		t.Status = entities.TicketStatusCancelled
		t.CancelledAt = &voidedAt
		s.tickets[ticketID] = t
	}

	return nil
}

func (s *memStore) announcedCancellations() []uuid.UUID {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]uuid.UUID(nil), s.cancelled...)
}

// ctxAwareStore fails every store call made with a done context, like a
// database driver does.
type ctxAwareStore struct {
	*memStore
}

func (s ctxAwareStore) TryDecrement(ctx context.Context, performanceID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.memStore.TryDecrement(ctx, performanceID)
}

func (s ctxAwareStore) Void(ctx context.Context, ticketID uuid.UUID, voidedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memStore.Void(ctx, ticketID, voidedAt)
}

func (s *memStore) TicketByID(ctx context.Context, ticketID uuid.UUID) (entities.TicketView, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return entities.TicketView{}, entities.ErrTicketNotFound
	}

	p := s.performances[t.PerformanceID]
	view := entities.TicketView{
		Ticket:          t,
		PerformanceName: p.Name,
		Category:        p.Category,
		StartDate:       p.StartDate,
		ScheduleTime:    p.ScheduleTime,
	}
	for _, a := range s.attendees {
		if a.AttendeeID == t.AttendeeID {
			view.AttendeeEmail = a.Email
		}
	}

	return view, nil
}

// WithTx serializes transactions and restores the previous state when fn fails.
func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txLock.Lock()
	defer s.txLock.Unlock()

	s.lock.Lock()
	performances := maps.Clone(s.performances)
	tickets := maps.Clone(s.tickets)
	s.lock.Unlock()

	if err := fn(ctx); err != nil {
		s.lock.Lock()
		s.performances = performances
		s.tickets = tickets
		s.lock.Unlock()

		return err
	}

	return nil
}

type qrEncoderStub struct{}

func (qrEncoderStub) Encode(payload []byte) ([]byte, error) {
	return append([]byte("png:"), payload...), nil
}

type notificationSenderMock struct {
	lock sync.Mutex
	err  error

	sent []entities.TicketNotification
}

func (m *notificationSenderMock) Send(ctx context.Context, n entities.TicketNotification) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, n)
	return nil
}

func (m *notificationSenderMock) Sent() []entities.TicketNotification {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]entities.TicketNotification(nil), m.sent...)
}

type eventPublisherMock struct {
	lock   sync.Mutex
	events []any
}

func (m *eventPublisherMock) Publish(ctx context.Context, event any) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.events = append(m.events, event)
	return nil
}

func (m *eventPublisherMock) Events() []any {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]any(nil), m.events...)
}

var errStoreDown = entities.NewTransientError(errors.New("connection refused"))
