package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/partsdeskhq/partsdesk-backend/pkg/redis"
)

const processedScopePrefix = "evt:processed:"

// Manager gives each pubsub consumer an at-most-once window per event id.
// The marker is a redis SETNX under pd:idempotency:evt:processed:<consumer>:<event_id>
// that expires after the configured TTL, so redeliveries older than the TTL
// are reprocessed rather than remembered forever.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// CheckAndMarkProcessed claims the marker for consumer+eventID. It reports
// true when another delivery already holds the marker; the caller should ack
// without reprocessing in that case.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	key, err := m.markerKey(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// Delete drops the marker after a failed handler so the broker redelivery
// gets a clean attempt.
func (m *Manager) Delete(ctx context.Context, consumer, eventID string) error {
	key, err := m.markerKey(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) markerKey(consumer, eventID string) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == "":
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey(processedScopePrefix+consumer, eventID), nil
}
