// Package mq decouples earnings accrual from the class workflow: the
// registry publishes accrual events to Redis and a background worker applies
// them, so a slow or failing earnings write can never stall a booking flow.
package mq

import (
	"context"
	"encoding/json"

	"courtside/ledger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const accrualChannel = "earning-events"

// AccrualPublisher implements ledger.Accruer by publishing to Redis.
// If the publish fails it falls back to the direct accruer, keeping the
// "never blocks, never propagates" contract either way.
type AccrualPublisher struct {
	conn     *redis.Client
	fallback ledger.Accruer
	log      *zap.Logger
}

func NewAccrualPublisher(conn *redis.Client, fallback ledger.Accruer, log *zap.Logger) *AccrualPublisher {
	return &AccrualPublisher{conn: conn, fallback: fallback, log: log}
}

func (p *AccrualPublisher) Accrue(ctx context.Context, a ledger.Accrual) {
	data, err := json.Marshal(a)
	if err != nil {
		p.log.Error("accrual marshal failed", zap.String("coachId", a.CoachID), zap.Error(err))
		return
	}

	if err := p.conn.Publish(ctx, accrualChannel, data).Err(); err != nil {
		p.log.Warn("accrual publish failed, applying inline",
			zap.String("coachId", a.CoachID), zap.Error(err))
		if p.fallback != nil {
			p.fallback.Accrue(ctx, a)
		}
		return
	}

	p.log.Debug("accrual published", zap.String("coachId", a.CoachID), zap.Int("amount", a.Amount))
}

// StartAccrualWorker consumes accrual events until ctx is cancelled.
// Malformed payloads are skipped; the manager logs its own write failures.
func StartAccrualWorker(ctx context.Context, conn *redis.Client, earnings *ledger.EarningsManager, log *zap.Logger) {
	sub := conn.Subscribe(ctx, accrualChannel)
	ch := sub.Channel()

	log.Info("accrual worker listening", zap.String("channel", accrualChannel))

	for {
		select {
		case <-ctx.Done():
			_ = sub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var a ledger.Accrual
			if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
				log.Warn("dropping malformed accrual event", zap.Error(err))
				continue
			}
			earnings.AddEarnings(ctx, a)
		}
	}
}
