package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"boxoffice/clock"
	"boxoffice/entities"
)

// compensationTimeout bounds the rollback of a ticket after a failed capacity
// reservation. The rollback outlives the caller's context.
const compensationTimeout = 5 * time.Second

type IssuanceService struct {
	inventory InventoryStore
	attendees AttendeeDirectory
	tickets   TicketLedger
	tx        Transactor

	qr        QREncoder
	notifier  NotificationSender
	publisher EventPublisher

	clock clock.Clock
	newID func() uuid.UUID
}

func NewIssuanceService(
	inventory InventoryStore,
	attendees AttendeeDirectory,
	tickets TicketLedger,
	tx Transactor,
	qr QREncoder,
	notifier NotificationSender,
	publisher EventPublisher,
	clk clock.Clock,
) *IssuanceService {
	if inventory == nil {
		panic("missing inventory")
	}
	if attendees == nil {
		panic("missing attendees")
	}
	if tickets == nil {
		panic("missing tickets")
	}
	if tx == nil {
		panic("missing tx")
	}
	if qr == nil {
		panic("missing qr")
	}
	if notifier == nil {
		panic("missing notifier")
	}
	if publisher == nil {
		panic("missing publisher")
	}
	if clk == nil {
		panic("missing clock")
	}

	return &IssuanceService{
		inventory: inventory,
		attendees: attendees,
		tickets:   tickets,
		tx:        tx,
		qr:        qr,
		notifier:  notifier,
		publisher: publisher,
		clock:     clk,
		newID:     uuid.New,
	}
}

type IssueTicketInput struct {
	PerformanceID uuid.UUID
	Email         string
}

type IssueTicketResult struct {
	Ticket entities.Ticket

	// NotificationErr is set when the ticket was issued but the attendee could
	// not be notified. The ticket stays valid.
	NotificationErr error
}

func (r IssueTicketResult) NotificationSent() bool {
	return r.NotificationErr == nil
}

// IssueTicket issues one ticket for the attendee identified by in.Email.
//
// The ticket row is created before capacity is reserved. If the reservation
// fails the ticket is voided again, so a valid ticket always holds a unit
// of capacity. A second counted ticket for the same attendee fails with
// ErrDuplicateTicket before capacity is touched.
func (s *IssuanceService) IssueTicket(ctx context.Context, in IssueTicketInput) (result IssueTicketResult, err error) {
	ctx, span := tracer.Start(ctx, "IssuanceService.IssueTicket", trace.WithAttributes(
		attribute.String("performance_id", in.PerformanceID.String()),
	))
	defer func() { endSpan(span, err) }()

	email, err := parseEmail(in.Email)
	if err != nil {
		return IssueTicketResult{}, err
	}

	performance, err := s.inventory.PerformanceByID(ctx, in.PerformanceID)
	if err != nil {
		return IssueTicketResult{}, fmt.Errorf("could not get performance %s: %w", in.PerformanceID, err)
	}
	// advisory only, TryDecrement decides
	if performance.SoldOut() {
		return IssueTicketResult{}, entities.ErrSoldOut
	}

	attendee, err := s.attendees.FindOrCreate(ctx, email)
	if err != nil {
		return IssueTicketResult{}, fmt.Errorf("could not resolve attendee: %w", err)
	}

	exists, err := s.tickets.Exists(ctx, performance.PerformanceID, attendee.AttendeeID)
	if err != nil {
		return IssueTicketResult{}, fmt.Errorf("could not check for existing ticket: %w", err)
	}
	if exists {
		return IssueTicketResult{}, entities.ErrDuplicateTicket
	}

	ticketID := s.newID()
	span.SetAttributes(attribute.String("ticket_id", ticketID.String()))

	payload, err := entities.NewQRPayload(ticketID, performance, attendee.Email).Marshal()
	if err != nil {
		return IssueTicketResult{}, fmt.Errorf("could not marshal qr payload: %w", err)
	}
	qrImage, err := s.qr.Encode(payload)
	if err != nil {
		return IssueTicketResult{}, fmt.Errorf("could not render qr code: %w", err)
	}

	ticket, err := s.tickets.Create(ctx, entities.Ticket{
		TicketID:      ticketID,
		PerformanceID: performance.PerformanceID,
		AttendeeID:    attendee.AttendeeID,
		Status:        entities.TicketStatusValid,
		QRPayload:     string(payload),
		IssuedAt:      s.clock.Now(),
	})
	if err != nil {
		return IssueTicketResult{}, fmt.Errorf("could not create ticket: %w", err)
	}

	if _, err := s.inventory.TryDecrement(ctx, performance.PerformanceID); err != nil {
		return IssueTicketResult{}, s.compensate(ctx, ticket, err)
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_id":      ticket.TicketID,
		"performance_id": performance.PerformanceID,
	})
	logger.Info("Ticket issued")

	result = IssueTicketResult{Ticket: ticket}

	result.NotificationErr = s.notifier.Send(ctx, entities.TicketNotification{
		AttendeeEmail: attendee.Email,
		Performance:   performance,
		TicketID:      ticket.TicketID,
		QRImage:       qrImage,
	})
	if result.NotificationErr != nil {
		logger.WithError(result.NotificationErr).Warn("Ticket issued but notification failed")
	}

	err = s.publisher.Publish(ctx, entities.TicketIssued_v1{
		Header:          entities.NewEventHeaderWithIdempotencyKey("issue-" + ticket.TicketID.String()),
		TicketID:        ticket.TicketID,
		PerformanceID:   performance.PerformanceID,
		AttendeeID:      attendee.AttendeeID,
		AttendeeEmail:   attendee.Email,
		PerformanceName: performance.Name,
		StartDate:       performance.StartDate,
		QRPayload:       ticket.QRPayload,
		IssuedAt:        ticket.IssuedAt,
	})
	if err != nil {
		logger.WithError(err).Error("Could not publish TicketIssued_v1")
	}

	return result, nil
}

// compensate voids a ticket whose capacity reservation failed. It runs even
// when ctx is already cancelled, since a valid ticket must not stay behind
// without capacity.
func (s *IssuanceService) compensate(ctx context.Context, ticket entities.Ticket, reserveErr error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if errors.Is(reserveErr, entities.ErrNoCapacity) {
		reserveErr = fmt.Errorf("%w: %w", entities.ErrSoldOut, reserveErr)
	} else {
		reserveErr = fmt.Errorf("could not reserve capacity: %w", reserveErr)
	}

	if err := s.tickets.Void(ctx, ticket.TicketID, s.clock.Now()); err != nil {
		log.FromContext(ctx).
			WithError(err).
			WithField("ticket_id", ticket.TicketID).
			Error("Could not void ticket after failed capacity reservation")

		return errors.Join(reserveErr, fmt.Errorf("could not void ticket %s: %w", ticket.TicketID, err))
	}

	return reserveErr
}

// CancelTicket cancels a ticket and gives its capacity back. Cancelling an
// already cancelled ticket changes nothing.
func (s *IssuanceService) CancelTicket(ctx context.Context, ticketID uuid.UUID) (cancelled entities.CancelledTicket, err error) {
	ctx, span := tracer.Start(ctx, "IssuanceService.CancelTicket", trace.WithAttributes(
		attribute.String("ticket_id", ticketID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cancelled, err = s.tickets.Cancel(ctx, ticketID, s.clock.Now())
		if err != nil {
			return err
		}

		if !cancelled.PreviousStatus.Counted() {
			return nil
		}

		if _, err := s.inventory.Increment(ctx, cancelled.Ticket.PerformanceID); err != nil {
			return fmt.Errorf("could not release capacity: %w", err)
		}

		return nil
	})
	if err != nil {
		return entities.CancelledTicket{}, err
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_id":       ticketID,
		"previous_status": cancelled.PreviousStatus,
	}).Info("Ticket cancelled")

	return cancelled, nil
}

// ResendNotification sends the ticket email again for a valid ticket.
func (s *IssuanceService) ResendNotification(ctx context.Context, ticketID uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "IssuanceService.ResendNotification", trace.WithAttributes(
		attribute.String("ticket_id", ticketID.String()),
	))
	defer func() { endSpan(span, err) }()

	ticket, err := s.tickets.TicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status != entities.TicketStatusValid {
		return entities.ErrTicketNotValid
	}

	performance, err := s.inventory.PerformanceByID(ctx, ticket.PerformanceID)
	if err != nil {
		return fmt.Errorf("could not get performance %s: %w", ticket.PerformanceID, err)
	}

	qrImage, err := s.qr.Encode([]byte(ticket.QRPayload))
	if err != nil {
		return fmt.Errorf("could not render qr code: %w", err)
	}

	return s.notifier.Send(ctx, entities.TicketNotification{
		AttendeeEmail: ticket.AttendeeEmail,
		Performance:   performance,
		TicketID:      ticket.TicketID,
		QRImage:       qrImage,
	})
}

func parseEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", entities.ErrInvalidInput)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email %q", entities.ErrInvalidInput, raw)
	}

	return email, nil
}
