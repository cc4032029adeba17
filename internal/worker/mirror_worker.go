package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockyard/internal/infra"
	"stockyard/internal/mirror"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxMirrorRetries bounds re-enqueues before a job is dead-lettered.
const MaxMirrorRetries = 5

// MirrorSyncWorker applies queued document upserts to the mirror store.
// Every write goes through the circuit breaker so a downed mirror is probed,
// not hammered. Failed jobs are re-enqueued with a retry budget and
// dead-lettered when it runs out.
type MirrorSyncWorker struct {
	store      mirror.DocStore
	cb         *infra.CircuitBreaker
	rdb        *redis.Client
	dispatcher *Dispatcher
	maxRetries int
}

func NewMirrorSyncWorker(store mirror.DocStore, cb *infra.CircuitBreaker, rdb *redis.Client, dispatcher *Dispatcher, maxRetries int) *MirrorSyncWorker {
	if maxRetries <= 0 {
		maxRetries = MaxMirrorRetries
	}
	return &MirrorSyncWorker{store: store, cb: cb, rdb: rdb, dispatcher: dispatcher, maxRetries: maxRetries}
}

// Process handles one mirror-sync job. Never returns an error: outcomes are
// success, re-enqueue, or DLQ.
func (w *MirrorSyncWorker) Process(ctx context.Context, job Job) {
	var p MirrorSyncPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("mirror_sync: malformed payload")
		return
	}

	err := w.cb.Execute(func() error {
		upsertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return w.store.UpsertDoc(upsertCtx, p.Collection, p.DocID, json.RawMessage(p.Document))
	})
	if err == nil {
		log.Debug().
			Str("collection", p.Collection).
			Str("doc_id", p.DocID).
			Int("attempts", p.Attempts).
			Msg("mirror_sync: document upserted")
		return
	}

	p.Attempts++
	if p.Attempts >= w.maxRetries {
		log.Error().Err(err).
			Str("collection", p.Collection).
			Str("doc_id", p.DocID).
			Int("attempts", p.Attempts).
			Msg("mirror_sync: max retries exceeded, dead-lettering")
		SendToDLQ(ctx, w.rdb, QueueMirrorSync, job.Type, job.Payload,
			fmt.Sprintf("max retries (%d) exceeded: %s", w.maxRetries, err), p.Attempts)
		return
	}

	log.Warn().Err(err).
		Str("collection", p.Collection).
		Str("doc_id", p.DocID).
		Int("attempts", p.Attempts).
		Msg("mirror_sync: upsert failed, re-enqueueing")
	if enqErr := w.dispatcher.EnqueueMirrorSync(ctx, p); enqErr != nil {
		log.Error().Err(enqErr).
			Str("doc_id", p.DocID).
			Msg("mirror_sync: re-enqueue failed, dead-lettering")
		SendToDLQ(ctx, w.rdb, QueueMirrorSync, job.Type, job.Payload,
			"re-enqueue failed: "+enqErr.Error(), p.Attempts)
	}
}
