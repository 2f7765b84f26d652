// Package notify publishes matchmaking events to RabbitMQ for the
// external push-notification collaborator. Delivery is best-effort:
// failures are logged and never block or fail the hall actor.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	queueInviteIssued = "invite.issued"
	queueWinRequested = "win.confirmation_requested"
)

type inviteIssuedEvent struct {
	HallID    string    `json:"hallId"`
	UserID    string    `json:"userId"`
	TableID   string    `json:"tableId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type winRequestedEvent struct {
	HallID   string `json:"hallId"`
	TableID  string `json:"tableId"`
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
}

type Publisher struct {
	url string
	log *zap.Logger
}

// New returns nil when no broker URL is configured; a nil Publisher is
// a valid no-op Notifier for the hall package.
func New(url string, log *zap.Logger) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, log: log}
}

func (p *Publisher) InviteIssued(hallID, userID, tableID string, expiresAt time.Time) {
	go p.publish(queueInviteIssued, inviteIssuedEvent{
		HallID: hallID, UserID: userID, TableID: tableID, ExpiresAt: expiresAt,
	})
}

func (p *Publisher) WinConfirmationRequested(hallID, tableID, winnerID, loserID string) {
	go p.publish(queueWinRequested, winRequestedEvent{
		HallID: hallID, TableID: tableID, WinnerID: winnerID, LoserID: loserID,
	})
}

// publish dials per message. Throughput here is a handful of events a
// minute at a busy hall; holding a connection open is not worth the
// reconnect handling.
func (p *Publisher) publish(queue string, event any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("notify: dial failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("notify: channel open failed", zap.Error(err))
		return
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.log.Warn("notify: queue declare failed", zap.String("queue", queue), zap.Error(err))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("notify: marshal failed", zap.Error(err))
		return
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.log.Warn("notify: publish failed", zap.String("queue", queue), zap.Error(err))
	}
}
