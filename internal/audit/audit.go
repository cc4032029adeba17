// Package audit records product-affecting mutations for the surrounding
// system's audit trail. The sink is strictly best-effort: a failed audit
// write is logged and swallowed, never surfaced to the mutation's caller.
package audit

import (
	"context"
	"encoding/json"

	"stockyard/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Entry is the audit payload accepted by a Sink.
type Entry struct {
	Action      string
	ProductID   uint
	SKU         string
	ProductName string
	StoreID     *uint
	Before      any
	After       any
	UserID      uint
}

// Sink consumes audit entries. Implementations must tolerate concurrent use.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// DBSink persists audit entries to the relational store, outside any caller
// transaction (the entry describes a commit that already happened).
type DBSink struct{ db *gorm.DB }

func NewDBSink(db *gorm.DB) *DBSink { return &DBSink{db: db} }

func (s *DBSink) Record(ctx context.Context, e Entry) {
	before, _ := json.Marshal(e.Before)
	after, _ := json.Marshal(e.After)

	row := model.AuditEntry{
		ID:          uuid.New(),
		Action:      e.Action,
		ProductID:   e.ProductID,
		SKU:         e.SKU,
		ProductName: e.ProductName,
		StoreID:     e.StoreID,
		Before:      before,
		After:       after,
		UserID:      e.UserID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error().Err(err).
			Str("action", e.Action).
			Uint("product_id", e.ProductID).
			Msg("audit: failed to record entry")
	}
}
