package alert

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/metrics"
)

// ErrNotifierClosed is returned after Close.
var ErrNotifierClosed = errors.New("alert: notifier closed")

// Publisher puts a serialized notification on the wire.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// RabbitPublisher publishes to a durable RabbitMQ queue consumed by the
// delivery worker.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewRabbitPublisher dials the broker and declares the queue and its DLQ.
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	dlqQ := queue + ".dlq"
	if _, err := ch.QueueDeclare(
		dlqQ,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		},
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitPublisher{conn: conn, ch: ch, queue: queue}, nil
}

// Publish implements Publisher.
func (p *RabbitPublisher) Publish(ctx context.Context, body []byte) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// Close implements Publisher.
func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// AMQPNotifier queues notifications in memory and publishes them from a
// background goroutine. A full buffer drops the notification.
type AMQPNotifier struct {
	pub    Publisher
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Notification
	done   chan struct{}
}

// NewAMQPNotifier starts the publishing goroutine.
func NewAMQPNotifier(pub Publisher, buffer int, logger zerolog.Logger) *AMQPNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	n := &AMQPNotifier{
		pub:    pub,
		logger: logger.With().Str("component", "amqp_notifier").Logger(),
		queue:  make(chan Notification, buffer),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify implements Notifier without blocking.
func (n *AMQPNotifier) Notify(_ context.Context, item Notification) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}

	select {
	case n.queue <- item:
		return nil
	default:
		metrics.NotificationsDropped.WithLabelValues("amqp").Inc()
		n.logger.Warn().
			Str("session_id", item.SessionID).
			Str("contact_id", item.ContactID).
			Msg("notification buffer full, dropping")
		return nil
	}
}

// Close drains pending notifications and closes the publisher.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done
	return n.pub.Close()
}

func (n *AMQPNotifier) run() {
	defer close(n.done)
	for item := range n.queue {
		body, err := json.Marshal(item)
		if err != nil {
			n.logger.Error().Err(err).Msg("encode notification")
			continue
		}
		if err := n.pub.Publish(context.Background(), body); err != nil {
			metrics.NotificationsDropped.WithLabelValues("amqp").Inc()
			n.logger.Error().Err(err).
				Str("session_id", item.SessionID).
				Str("contact_id", item.ContactID).
				Msg("publish notification")
		}
	}
}
