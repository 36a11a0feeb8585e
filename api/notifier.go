package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"boxoffice/entities"
)

const qrImageName = "ticket-qr.png"

var ticketEmailTemplate = template.Must(template.New("ticket_email").Parse(`<!DOCTYPE html>
<html>
	<body>
		<h1>{{.PerformanceName}}</h1>
		<p>Date: {{.Date}}</p>
		<p>Time: {{.ScheduleTime}}</p>
		<p>Category: {{.Category}}</p>
		<p>Ticket: {{.TicketID}}</p>
		<p>Show this code at the entrance:</p>
		<img src="cid:{{.QRImageName}}" alt="Ticket QR code" width="300" height="300">
	</body>
</html>
`))

type ticketEmailData struct {
	PerformanceName string
	Date            string
	ScheduleTime    string
	Category        string
	TicketID        string
	QRImageName     string
}

// mailDialer is satisfied by *gomail.Dialer.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier emails issued tickets. Calls go through a circuit breaker, so
// an unreachable SMTP server fails fast instead of holding every request.
type SMTPNotifier struct {
	dialer  mailDialer
	from    string
	breaker *gobreaker.CircuitBreaker
}

func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	return newSMTPNotifier(
		gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		config.From,
	)
}

func newSMTPNotifier(dialer mailDialer, from string) *SMTPNotifier {
	if dialer == nil {
		panic("missing dialer")
	}
	if from == "" {
		panic("missing from address")
	}

	return &SMTPNotifier{
		dialer: dialer,
		from:   from,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "smtp",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logrus.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state changed")
			},
		}),
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, notification entities.TicketNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.message(notification)
	if err != nil {
		return err
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		return nil, n.dialer.DialAndSend(msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return entities.NewTransientError(fmt.Errorf("smtp circuit breaker: %w", err))
	}
	if err != nil {
		return fmt.Errorf("could not send ticket email: %w", err)
	}

	log.FromContext(ctx).WithField("ticket_id", notification.TicketID).Info("Ticket email sent")

	return nil
}

func (n *SMTPNotifier) message(notification entities.TicketNotification) (*gomail.Message, error) {
	var body bytes.Buffer
	err := ticketEmailTemplate.Execute(&body, ticketEmailData{
		PerformanceName: notification.Performance.Name,
		Date:            notification.Performance.StartDate.UTC().Format("2006-01-02"),
		ScheduleTime:    notification.Performance.ScheduleTime,
		Category:        notification.Performance.Category,
		TicketID:        notification.TicketID.String(),
		QRImageName:     qrImageName,
	})
	if err != nil {
		return nil, fmt.Errorf("could not render ticket email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", notification.AttendeeEmail)
	msg.SetHeader("Subject", "Your ticket for: "+notification.Performance.Name)
	msg.SetBody("text/html", body.String())

	qrImage := notification.QRImage
	msg.Embed(qrImageName, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(qrImage)
		return err
	}))

	return msg, nil
}
