package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer drains SeatEventsQueue and appends one line per event to
// an audit log file.
type AuditConsumer struct {
	url     string
	logPath string
	log     *zap.Logger
}

// NewAuditConsumer builds a consumer writing to logPath (e.g. logs/seat.log).
func NewAuditConsumer(url, logPath string, log *zap.Logger) *AuditConsumer {
	return &AuditConsumer{url: url, logPath: logPath, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are redialled with exponential backoff.  Messages that cannot
// be handled are rejected without requeue to avoid tight loops.
func (c *AuditConsumer) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()
		bo.Reset()
		err = c.consume(ctx, conn)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		c.log.Warn("seat-audit consumer disconnected", zap.Error(err), zap.Duration("retry_in", wait))
	})
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("seat-audit consumer: set QoS failed", zap.Error(err))
	}
	if err := declareSeatEvents(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(SeatEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.log.Warn("seat-audit consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handle(body []byte) error {
	var ev SeatEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(AuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// AuditLine renders ev as a single human-friendly log line.
func AuditLine(ev SeatEvent) string {
	line := fmt.Sprintf("[%s] %s | event_id=%s | person_id=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.EventID, ev.PersonID)
	if ev.SeatID != "" {
		line += " | seat_id=" + ev.SeatID
	}
	if ev.ActorID != "" {
		line += " | actor_id=" + ev.ActorID
	}
	if ev.ExpiresAt != nil {
		line += " | expires_at=" + ev.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return line + "\n"
}
