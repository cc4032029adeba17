package worker

// Background goroutine that periodically re-drains the mirror-sync DLQ back
// into the live queue once the mirror store looks reachable again. Uses the
// circuit breaker state as the gate so a still-down mirror is left alone.

import (
	"context"
	"encoding/json"
	"time"

	"stockyard/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const retryBatchSize = 10

// RetryCronConfig holds the dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB        *redis.Client
	CB         *infra.CircuitBreaker
	Dispatcher *Dispatcher
	Tick       time.Duration
}

// StartRetryCron launches a goroutine that ticks on the configured interval
// and moves up to retryBatchSize dead-lettered mirror jobs back into the
// queue with a reset retry budget. Respects the context for shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	if cfg.Tick <= 0 {
		cfg.Tick = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(cfg.Tick)
		defer ticker.Stop()

		log.Info().Dur("tick", cfg.Tick).Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				redrainDLQ(ctx, cfg)
			}
		}
	}()
}

func redrainDLQ(ctx context.Context, cfg RetryCronConfig) {
	// If the CB is open the mirror is still down — skip the tick entirely.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	requeued := 0
	for i := 0; i < retryBatchSize; i++ {
		entry, err := PopDLQ(ctx, cfg.RDB, QueueMirrorSync)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to pop DLQ entry")
			return
		}
		if entry == nil {
			break
		}

		var p MirrorSyncPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			log.Error().Err(err).Msg("retry_cron: dropping malformed DLQ entry")
			continue
		}

		// Fresh retry budget for the new round.
		p.Attempts = 0
		if err := cfg.Dispatcher.EnqueueMirrorSync(ctx, p); err != nil {
			log.Error().Err(err).
				Str("doc_id", p.DocID).
				Msg("retry_cron: re-enqueue failed, pushing back to DLQ")
			SendToDLQ(ctx, cfg.RDB, QueueMirrorSync, entry.JobType, entry.Payload,
				"retry_cron re-enqueue failed: "+err.Error(), entry.Attempts)
			return
		}
		requeued++
	}

	if requeued > 0 {
		log.Info().Int("count", requeued).Msg("retry_cron: re-queued dead-lettered mirror jobs")
	}
}
