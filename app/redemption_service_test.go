package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/app"
	"boxoffice/clock"
	"boxoffice/entities"
)

func issueFor(t *testing.T, f issuanceFixture, startDate time.Time) entities.Ticket {
	t.Helper()

	performance := f.store.addPerformance(5, startDate)
	result, err := f.issue(t, performance.PerformanceID, "ada@example.com")
	require.NoError(t, err)

	return result.Ticket
}

func TestRedeem_twice(t *testing.T) {
	f := newIssuanceFixture()
	redemption := app.NewRedemptionService(f.store, clock.NewFixed(now))
	ctx := context.Background()

	ticket := issueFor(t, f, now.Add(time.Hour))

	used, err := redemption.Redeem(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketStatusUsed, used.Status)
	require.NotNil(t, used.RedeemedAt)
	assert.Equal(t, now, *used.RedeemedAt)

	_, err = redemption.Redeem(ctx, ticket.TicketID)
	assert.ErrorIs(t, err, entities.ErrTicketNotValid)

	result, err := redemption.Validate(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, app.OutcomeInvalid, result.Outcome)
	assert.Equal(t, app.ReasonUsed, result.Reason)
}

func TestRedeem_unknown_ticket(t *testing.T) {
	f := newIssuanceFixture()
	redemption := app.NewRedemptionService(f.store, clock.NewFixed(now))

	_, err := redemption.Redeem(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entities.ErrTicketNotFound)
}

func TestValidate(t *testing.T) {
	f := newIssuanceFixture()
	ctx := context.Background()

	valid := issueFor(t, f, now.Add(time.Hour))
	startsNow := issueFor(t, f, now)
	expired := issueFor(t, f, now.Add(-time.Minute))

	cancelled := issueFor(t, f, now.Add(time.Hour))
	_, err := f.service.CancelTicket(ctx, cancelled.TicketID)
	require.NoError(t, err)

	redemption := app.NewRedemptionService(f.store, clock.NewFixed(now))

	testCases := []struct {
		name     string
		ticketID uuid.UUID
		outcome  app.ValidationOutcome
		reason   app.InvalidReason
	}{
		{name: "valid", ticketID: valid.TicketID, outcome: app.OutcomeValid},
		{name: "starting_now_is_not_expired", ticketID: startsNow.TicketID, outcome: app.OutcomeValid},
		{name: "expired", ticketID: expired.TicketID, outcome: app.OutcomeInvalid, reason: app.ReasonExpired},
		{name: "cancelled", ticketID: cancelled.TicketID, outcome: app.OutcomeInvalid, reason: app.ReasonCancelled},
		{name: "not_found", ticketID: uuid.New(), outcome: app.OutcomeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := redemption.Validate(ctx, tc.ticketID)
			require.NoError(t, err)

			assert.Equal(t, tc.outcome, result.Outcome)
			assert.Equal(t, tc.reason, result.Reason)
			if tc.outcome == app.OutcomeNotFound {
				assert.Nil(t, result.Ticket)
			} else {
				require.NotNil(t, result.Ticket)
				assert.Equal(t, tc.ticketID, result.Ticket.TicketID)
			}
		})
	}
}

func TestValidate_does_not_mutate(t *testing.T) {
	f := newIssuanceFixture()
	redemption := app.NewRedemptionService(f.store, clock.NewFixed(now))
	ctx := context.Background()

	ticket := issueFor(t, f, now.Add(time.Hour))
	before := f.store.ticket(ticket.TicketID)

	for i := 0; i < 5; i++ {
		_, err := redemption.Validate(ctx, ticket.TicketID)
		require.NoError(t, err)
	}

	assert.Equal(t, before, f.store.ticket(ticket.TicketID))
}
