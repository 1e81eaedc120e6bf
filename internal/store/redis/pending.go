package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/domain"
)

// PendingAuditKey is the list holding audit records that still need to be
// written to the ledger. New records are pushed on the left and consumed
// from the right, so the oldest record is retried first.
const PendingAuditKey = "taskledger:audit:pending"

type PendingQueue struct {
	client *redis.Client
	key    string
}

func New(ctx context.Context, addr, password string, db int) (*PendingQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PendingQueue{client: client, key: PendingAuditKey}, nil
}

func (q *PendingQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return fmt.Errorf("redis.PendingQueue.Close: %w", err)
	}
	return nil
}

func (q *PendingQueue) Push(ctx context.Context, rec *domain.AuditRecord) error {
	payload, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("redis.PendingQueue.Push: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis.PendingQueue.Push: %w", err)
	}
	return nil
}

// Peek returns the oldest record without removing it. It returns nil, nil
// when the queue is empty. An entry that cannot be decoded is dropped and
// logged so it cannot block the records behind it.
func (q *PendingQueue) Peek(ctx context.Context) (*domain.AuditRecord, error) {
	for {
		payload, err := q.client.LIndex(ctx, q.key, -1).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis.PendingQueue.Peek: %w", err)
		}

		rec, decodeErr := decodeRecord(payload)
		if decodeErr == nil {
			return rec, nil
		}

		log.Error().Err(decodeErr).Bytes("payload", payload).Msg("audit: undecodable pending entry dropped")
		if err := q.client.LRem(ctx, q.key, -1, payload).Err(); err != nil {
			return nil, fmt.Errorf("redis.PendingQueue.Peek: drop undecodable entry: %w", err)
		}
	}
}

// ackScript pops the oldest entry only if it still carries the given id, so
// an ack never removes a record that was not written.
var ackScript = redis.NewScript(`
local tail = redis.call('LINDEX', KEYS[1], -1)
if tail and cjson.decode(tail).id == ARGV[1] then
	return redis.call('RPOP', KEYS[1])
end
return false
`)

// Ack removes the oldest record if its id is id. Acking a record that is
// no longer the oldest is a no-op.
func (q *PendingQueue) Ack(ctx context.Context, id uuid.UUID) error {
	err := ackScript.Run(ctx, q.client, []string{q.key}, id.String()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis.PendingQueue.Ack: %w", err)
	}
	return nil
}

func (q *PendingQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis.PendingQueue.Len: %w", err)
	}
	return n, nil
}

func encodeRecord(rec *domain.AuditRecord) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("encode: nil record")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return payload, nil
}

func decodeRecord(payload []byte) (*domain.AuditRecord, error) {
	var rec domain.AuditRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if rec.ID == uuid.Nil {
		return nil, errors.New("decode: record has no id")
	}
	return &rec, nil
}
