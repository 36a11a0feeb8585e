package event

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"boxoffice/entities"
)

var printableTicketTemplate = template.Must(template.New("printable_ticket").Parse(`<html>
	<head>
		<title>Ticket {{.TicketID}}</title>
	</head>
	<body>
		<h1>{{.PerformanceName}}</h1>
		<p>Date: {{.Date}}</p>
		<p>Attendee: {{.AttendeeEmail}}</p>
		<p>Ticket: {{.TicketID}}</p>
		<img src="{{.QRImage}}" alt="Ticket QR code">
	</body>
</html>
`))

type printableTicket struct {
	TicketID        string
	PerformanceName string
	Date            string
	AttendeeEmail   string
	QRImage         template.URL
}

func PrintableTicketFileName(ticketID uuid.UUID) string {
	return ticketID.String() + "-ticket.html"
}

func (h Handler) StorePrintableTicket(ctx context.Context, event *entities.TicketIssued_v1) error {
	log.FromContext(ctx).Info("Printing ticket")

	png, err := h.qrEncoder.Encode([]byte(event.QRPayload))
	if err != nil {
		return fmt.Errorf("could not render qr code: %w", err)
	}

	var ticketHTML bytes.Buffer
	err = printableTicketTemplate.Execute(&ticketHTML, printableTicket{
		TicketID:        event.TicketID.String(),
		PerformanceName: event.PerformanceName,
		Date:            event.StartDate.UTC().Format(time.DateOnly),
		AttendeeEmail:   event.AttendeeEmail,
		QRImage:         template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	})
	if err != nil {
		return fmt.Errorf("could not render printable ticket: %w", err)
	}

	fileName := PrintableTicketFileName(event.TicketID)

	if err := h.filesAPI.StoreFile(ctx, fileName, ticketHTML.String()); err != nil {
		return fmt.Errorf("failed to upload ticket file: %w", err)
	}

	return h.eventBus.Publish(ctx, entities.TicketPrinted_v1{
		Header:        entities.NewEventHeaderWithIdempotencyKey("print-" + event.TicketID.String()),
		TicketID:      event.TicketID,
		PerformanceID: event.PerformanceID,
		FileName:      fileName,
	})
}
