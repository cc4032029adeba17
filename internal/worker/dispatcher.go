package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const QueueMirrorSync = "jobs:mirror_sync"

// Job is the generic envelope for all async tasks.
type Job struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MirrorSyncPayload carries one mirror upsert: the document snapshot taken
// at commit time, the target collection, and the retry count so far.
type MirrorSyncPayload struct {
	Collection string          `json:"collection"`
	DocID      string          `json:"doc_id"`
	Document   json.RawMessage `json:"document"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Dispatcher enqueues async jobs into Redis lists; the worker pool dequeues
// them via BRPOP. This is the outbox half of the dual-store mediator: the
// authoritative transaction has already committed by the time anything is
// enqueued here.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueMirrorSync pushes a mirror upsert job. Callers treat a returned
// error as non-fatal (log and continue) — the primary write stands.
func (d *Dispatcher) EnqueueMirrorSync(ctx context.Context, p MirrorSyncPayload) error {
	if p.EnqueuedAt.IsZero() {
		p.EnqueuedAt = time.Now().UTC()
	}
	return d.enqueue(ctx, QueueMirrorSync, "mirror_sync", p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{ID: uuid.NewString(), Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
