package poisonqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/redis/go-redis/v9"

	boxofficeMessage "boxoffice/message"
)

const consumerGroup = "poison-queue-cli"

var ErrMessageNotFound = errors.New("message not found in poison queue")

type Message struct {
	ID            string
	Reason        string
	OriginalTopic string
	Handler       string
}

type Handler struct {
	// the router closes its subscriber when it stops, so every walk gets a new one
	newSubscriber func() (message.Subscriber, error)
	publisher     message.Publisher
	logger        watermill.LoggerAdapter

	timeout time.Duration
}

func NewHandler(rdb *redis.Client, logger watermill.LoggerAdapter) (*Handler, error) {
	newSubscriber := func() (message.Subscriber, error) {
		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        rdb,
			ConsumerGroup: consumerGroup,
		}, logger)
	}

	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("could not create poison queue publisher: %w", err)
	}

	return newHandler(newSubscriber, pub, logger, 10*time.Second), nil
}

func newHandler(
	newSubscriber func() (message.Subscriber, error),
	pub message.Publisher,
	logger watermill.LoggerAdapter,
	timeout time.Duration,
) *Handler {
	return &Handler{
		newSubscriber: newSubscriber,
		publisher:     pub,
		logger:        logger,
		timeout:       timeout,
	}
}

func (h *Handler) Preview(ctx context.Context) ([]Message, error) {
	var messages []Message

	err := h.cycle(ctx, "preview", func(msg *message.Message) (bool, error) {
		messages = append(messages, Message{
			ID:            msg.UUID,
			Reason:        msg.Metadata.Get(middleware.ReasonForPoisonedKey),
			OriginalTopic: msg.Metadata.Get(middleware.PoisonedTopicKey),
			Handler:       msg.Metadata.Get(middleware.PoisonedHandlerKey),
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (h *Handler) Remove(ctx context.Context, messageID string) error {
	found := false

	err := h.cycle(ctx, "remove", func(msg *message.Message) (bool, error) {
		if msg.UUID != messageID {
			return true, nil
		}
		found = true
		return false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}

	return nil
}

func (h *Handler) Requeue(ctx context.Context, messageID string) error {
	found := false

	err := h.cycle(ctx, "requeue", func(msg *message.Message) (bool, error) {
		if msg.UUID != messageID {
			return true, nil
		}

		topic := msg.Metadata.Get(middleware.PoisonedTopicKey)
		if topic == "" {
			return true, fmt.Errorf("message %s has no original topic", msg.UUID)
		}

		requeued := message.NewMessage(msg.UUID, msg.Payload)
		for k, v := range msg.Metadata {
			requeued.Metadata.Set(k, v)
		}
		delete(requeued.Metadata, middleware.ReasonForPoisonedKey)
		delete(requeued.Metadata, middleware.PoisonedTopicKey)
		delete(requeued.Metadata, middleware.PoisonedHandlerKey)
		delete(requeued.Metadata, middleware.PoisonedSubscriberKey)

		if err := h.publisher.Publish(topic, requeued); err != nil {
			return true, fmt.Errorf("could not requeue message %s to %s: %w", msg.UUID, topic, err)
		}

		found = true
		return false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}

	return nil
}

// cycle walks the poison queue once. Messages for which visit returns keep
// are published back to the end of the queue, the rest are dropped.
// The walk stops when the first message comes around again or when the
// queue stays quiet until the timeout.
func (h *Handler) cycle(
	ctx context.Context,
	name string,
	visit func(msg *message.Message) (keep bool, err error),
) error {
	sub, err := h.newSubscriber()
	if err != nil {
		return fmt.Errorf("could not create poison queue subscriber: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, h.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	firstMessage := ""
	var visitErr error

	router.AddHandler(
		name,
		boxofficeMessage.PoisonQueueTopic,
		sub,
		boxofficeMessage.PoisonQueueTopic,
		h.publisher,
		func(msg *message.Message) ([]*message.Message, error) {
			if firstMessage == msg.UUID {
				cancel()
				return []*message.Message{msg}, nil
			}
			if firstMessage == "" {
				firstMessage = msg.UUID
			}

			keep, err := visit(msg)
			if err != nil {
				visitErr = err
				cancel()
				return []*message.Message{msg}, nil
			}
			if !keep {
				// the first message is gone, so the walk can't wait for it to come back
				if firstMessage == msg.UUID {
					cancel()
				}
				return nil, nil
			}

			return []*message.Message{msg}, nil
		},
	)

	if err := router.Run(ctx); err != nil {
		return err
	}

	return visitErr
}
