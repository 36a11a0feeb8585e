package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/app"
	"boxoffice/entities"
)

type issuerMock struct {
	issueErr  error
	cancelErr error
}

func (m issuerMock) IssueTicket(ctx context.Context, in app.IssueTicketInput) (app.IssueTicketResult, error) {
	if m.issueErr != nil {
		return app.IssueTicketResult{}, m.issueErr
	}
	return app.IssueTicketResult{
		Ticket: entities.Ticket{
			TicketID:      uuid.New(),
			PerformanceID: in.PerformanceID,
			Status:        entities.TicketStatusValid,
			QRPayload:     `{"ticketId":"x"}`,
		},
	}, nil
}

func (m issuerMock) CancelTicket(ctx context.Context, ticketID uuid.UUID) (entities.CancelledTicket, error) {
	if m.cancelErr != nil {
		return entities.CancelledTicket{}, m.cancelErr
	}
	return entities.CancelledTicket{
		Ticket:         entities.Ticket{TicketID: ticketID, Status: entities.TicketStatusCancelled},
		PreviousStatus: entities.TicketStatusValid,
	}, nil
}

type redeemerMock struct {
	result    app.ValidationResult
	redeemErr error
}

func (m redeemerMock) Validate(ctx context.Context, ticketID uuid.UUID) (app.ValidationResult, error) {
	return m.result, nil
}

func (m redeemerMock) Redeem(ctx context.Context, ticketID uuid.UUID) (entities.Ticket, error) {
	if m.redeemErr != nil {
		return entities.Ticket{}, m.redeemErr
	}
	return entities.Ticket{TicketID: ticketID, Status: entities.TicketStatusUsed}, nil
}

type performancesMock struct {
	lock    sync.Mutex
	created []entities.Performance
}

func (m *performancesMock) Create(ctx context.Context, performance entities.Performance) (entities.PerformanceCreateResponse, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.created = append(m.created, performance)
	return entities.PerformanceCreateResponse{PerformanceID: uuid.New()}, nil
}

func (m *performancesMock) PerformanceByID(ctx context.Context, performanceID uuid.UUID) (entities.Performance, error) {
	return entities.Performance{}, entities.ErrPerformanceNotFound
}

func (m *performancesMock) List(ctx context.Context) ([]entities.Performance, error) {
	return []entities.Performance{}, nil
}

type ticketReaderMock struct{}

func (ticketReaderMock) ListByPerformance(ctx context.Context, performanceID uuid.UUID) ([]entities.TicketView, error) {
	return []entities.TicketView{}, nil
}

func (ticketReaderMock) ListByAttendee(ctx context.Context, attendeeID uuid.UUID) ([]entities.TicketView, error) {
	return []entities.TicketView{}, nil
}

type attendanceMock struct{}

func (attendanceMock) AttendanceByPerformanceID(ctx context.Context, performanceID uuid.UUID) (entities.PerformanceAttendance, error) {
	return entities.PerformanceAttendance{PerformanceID: performanceID}, nil
}

type commandBusMock struct {
	lock     sync.Mutex
	commands []any
}

func (m *commandBusMock) Send(ctx context.Context, cmd any) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.commands = append(m.commands, cmd)
	return nil
}

type routerFixture struct {
	issuer       issuerMock
	redeemer     redeemerMock
	performances *performancesMock
	commandBus   *commandBusMock
}

func newRouterFixture() *routerFixture {
	return &routerFixture{
		performances: &performancesMock{},
		commandBus:   &commandBusMock{},
	}
}

func (f *routerFixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	e := NewHttpRouter(f.issuer, f.redeemer, f.performances, ticketReaderMock{}, attendanceMock{}, f.commandBus)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)

	return rec, decoded
}

func TestPostTickets(t *testing.T) {
	f := newRouterFixture()

	rec, body := f.do(t, http.MethodPost, "/tickets", `{"performance_id":"`+uuid.NewString()+`","email":"ada@example.com"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["notification_sent"])
	assert.Equal(t, `{"ticketId":"x"}`, body["qr_payload"])
}

func TestPostTickets_errors(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		issueErr error
		status   int
		code     string
	}{
		{
			name:   "malformed_performance_id",
			body:   `{"performance_id":"nope","email":"ada@example.com"}`,
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:     "sold_out",
			issueErr: entities.ErrSoldOut,
			status:   http.StatusConflict,
			code:     "sold_out",
		},
		{
			name:     "duplicate",
			issueErr: entities.ErrDuplicateTicket,
			status:   http.StatusConflict,
			code:     "duplicate_ticket",
		},
		{
			name:     "performance_not_found",
			issueErr: entities.ErrPerformanceNotFound,
			status:   http.StatusNotFound,
			code:     "performance_not_found",
		},
		{
			name:     "store_unavailable",
			issueErr: entities.NewTransientError(context.DeadlineExceeded),
			status:   http.StatusServiceUnavailable,
			code:     "store_unavailable",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture()
			f.issuer.issueErr = tc.issueErr

			body := tc.body
			if body == "" {
				body = `{"performance_id":"` + uuid.NewString() + `","email":"ada@example.com"}`
			}

			rec, decoded := f.do(t, http.MethodPost, "/tickets", body)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decoded["code"])
		})
	}
}

func TestPostValidateTicket(t *testing.T) {
	testCases := []struct {
		name   string
		result app.ValidationResult
		status int
		reason any
	}{
		{
			name:   "valid",
			result: app.ValidationResult{Outcome: app.OutcomeValid, Ticket: &entities.TicketView{}},
			status: http.StatusOK,
		},
		{
			name:   "not_found",
			result: app.ValidationResult{Outcome: app.OutcomeNotFound},
			status: http.StatusNotFound,
		},
		{
			name:   "used",
			result: app.ValidationResult{Outcome: app.OutcomeInvalid, Reason: app.ReasonUsed, Ticket: &entities.TicketView{}},
			status: http.StatusBadRequest,
			reason: "used",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture()
			f.redeemer.result = tc.result

			rec, body := f.do(t, http.MethodPost, "/tickets/validate", `{"ticket_id":"`+uuid.NewString()+`"}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, string(tc.result.Outcome), body["outcome"])
			assert.Equal(t, tc.reason, body["reason"])
		})
	}
}

func TestPatchUseTicket_not_valid(t *testing.T) {
	f := newRouterFixture()
	f.redeemer.redeemErr = entities.ErrTicketNotValid

	rec, body := f.do(t, http.MethodPatch, "/tickets/"+uuid.NewString()+"/use", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ticket_not_valid", body["code"])
}

func TestDeleteTicket_not_found(t *testing.T) {
	f := newRouterFixture()
	f.issuer.cancelErr = entities.ErrTicketNotFound

	rec, body := f.do(t, http.MethodDelete, "/tickets/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ticket_not_found", body["code"])
}

func TestPostResendTicket(t *testing.T) {
	f := newRouterFixture()
	ticketID := uuid.New()

	rec, _ := f.do(t, http.MethodPost, "/tickets/"+ticketID.String()+"/resend", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, f.commandBus.commands, 1)
	cmd, ok := f.commandBus.commands[0].(entities.ResendTicketNotification_v1)
	require.True(t, ok)
	assert.Equal(t, ticketID, cmd.TicketID)
}

func TestPostPerformances(t *testing.T) {
	f := newRouterFixture()

	rec, _ := f.do(t, http.MethodPost, "/performances", `{"name":"Hamlet","start_date":"2026-06-01","schedule_time":"19:30","total_capacity":100}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, f.performances.created, 1)
	created := f.performances.created[0]
	assert.Equal(t, entities.PerformanceStatusActive, created.Status)
	assert.Equal(t, 100, created.AvailableCapacity)
	assert.Equal(t, time.Date(2026, 6, 1, 19, 30, 0, 0, time.UTC), created.StartDate)
}

func TestPostPerformances_validation(t *testing.T) {
	for _, body := range []string{
		`{"start_date":"2026-06-01","schedule_time":"19:30","total_capacity":100}`,
		`{"name":"Hamlet","start_date":"June 1st","schedule_time":"19:30","total_capacity":100}`,
		`{"name":"Hamlet","start_date":"2026-06-01","schedule_time":"19:30"}`,
		`{"name":"Hamlet","start_date":"2026-06-01","schedule_time":"19:30","total_capacity":-1}`,
	} {
		f := newRouterFixture()

		rec, decoded := f.do(t, http.MethodPost, "/performances", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "invalid_input", decoded["code"], body)
	}
}

func TestHealth(t *testing.T) {
	f := newRouterFixture()

	rec, _ := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
