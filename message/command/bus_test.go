package command_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/entities"
	"boxoffice/message/command"
)

type publishedMessage struct {
	topic string
	msg   *message.Message
}

type publisherMock struct {
	lock     sync.Mutex
	messages []publishedMessage
}

func (p *publisherMock) Publish(topic string, messages ...*message.Message) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	for _, msg := range messages {
		p.messages = append(p.messages, publishedMessage{topic: topic, msg: msg})
	}
	return nil
}

func (p *publisherMock) Close() error {
	return nil
}

type notifierMock struct {
	resent []uuid.UUID
}

func (n *notifierMock) ResendNotification(ctx context.Context, ticketID uuid.UUID) error {
	n.resent = append(n.resent, ticketID)
	return nil
}

func TestCommandBus_sends_to_handler_topic(t *testing.T) {
	pub := &publisherMock{}
	bus := command.NewCommandBus(pub)

	ticketID := uuid.New()
	err := bus.Send(context.Background(), &entities.ResendTicketNotification_v1{
		Header:   entities.NewEventHeaderWithIdempotencyKey("resend-" + ticketID.String()),
		TicketID: ticketID,
	})
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "commands.ResendTicketNotification_v1", pub.messages[0].topic)
	assert.Equal(t, command.Topic("ResendTicketNotification_v1"), pub.messages[0].topic)

	var sent entities.ResendTicketNotification_v1
	require.NoError(t, json.Unmarshal(pub.messages[0].msg.Payload, &sent))
	assert.Equal(t, ticketID, sent.TicketID)
	assert.Equal(t, "resend-"+ticketID.String(), sent.Header.IdempotencyKey)
}

func TestHandler_ResendTicketNotification(t *testing.T) {
	notifier := &notifierMock{}
	handler := command.NewHandler(notifier)

	ticketID := uuid.New()
	err := handler.ResendTicketNotification(context.Background(), &entities.ResendTicketNotification_v1{
		Header:   entities.NewEventHeader(),
		TicketID: ticketID,
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{ticketID}, notifier.resent)
}
