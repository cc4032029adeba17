package service

import (
	"context"
	"encoding/json"

	"stockyard/internal/audit"
	"stockyard/internal/cache"
	"stockyard/internal/mirror"
	"stockyard/internal/model"
	"stockyard/internal/worker"

	"github.com/rs/zerolog/log"
)

// SideEffects bundles everything that happens strictly AFTER an
// authoritative transaction commits: mirror-sync enqueue, audit trail,
// alert re-evaluation, and the list-cache invalidation signal. Every method
// is best-effort — failures are logged and swallowed, never propagated to
// the committed operation's caller. Any field may be nil (unit tests).
type SideEffects struct {
	Dispatcher *worker.Dispatcher
	Audit      audit.Sink
	Alerts     AlertEvaluator
	Cache      *cache.ProductCache
}

// MirrorProduct enqueues a product snapshot for the mirror store.
func (e *SideEffects) MirrorProduct(ctx context.Context, p *model.Product) {
	if e == nil || e.Dispatcher == nil || p == nil {
		return
	}
	e.enqueue(ctx, mirror.CollectionProducts, mirror.DocID(p.ID), mirror.FromProduct(p))
}

// MirrorTransfer enqueues a transfer snapshot for the mirror store.
func (e *SideEffects) MirrorTransfer(ctx context.Context, t *model.Transfer) {
	if e == nil || e.Dispatcher == nil || t == nil {
		return
	}
	e.enqueue(ctx, mirror.CollectionTransfers, mirror.DocID(t.ID), mirror.FromTransfer(t))
}

func (e *SideEffects) enqueue(ctx context.Context, collection, docID string, doc any) {
	data, err := json.Marshal(doc)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Str("doc_id", docID).
			Msg("mirror: failed to marshal document")
		return
	}
	err = e.Dispatcher.EnqueueMirrorSync(ctx, worker.MirrorSyncPayload{
		Collection: collection,
		DocID:      docID,
		Document:   data,
	})
	if err != nil {
		// Non-fatal by contract: the authoritative write already stands.
		log.Error().Err(err).Str("collection", collection).Str("doc_id", docID).
			Msg("mirror: enqueue failed")
	}
}

// Record forwards to the audit sink when one is configured.
func (e *SideEffects) Record(ctx context.Context, entry audit.Entry) {
	if e == nil || e.Audit == nil {
		return
	}
	e.Audit.Record(ctx, entry)
}

// Evaluate re-runs the alert state machine for a product snapshot.
func (e *SideEffects) Evaluate(ctx context.Context, p *model.Product) {
	if e == nil || e.Alerts == nil || p == nil {
		return
	}
	e.Alerts.Evaluate(ctx, p)
}

// InvalidateCache emits the post-write cache invalidation signal.
func (e *SideEffects) InvalidateCache(ctx context.Context) {
	if e == nil || e.Cache == nil {
		return
	}
	e.Cache.Invalidate(ctx)
}
