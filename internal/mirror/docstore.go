// Package mirror abstracts the secondary, best-effort document store.
// The authoritative relational store never depends on it: mirror writes
// happen strictly after commit and their failures are logged, not returned.
package mirror

import "context"

// Collections mirrored from the authoritative store.
const (
	CollectionProducts  = "products"
	CollectionTransfers = "transfers"
	CollectionAlerts    = "alerts"
)

// DocStore is the single explicit interface every backing store implements.
// No runtime capability probing: upsert semantics are the contract —
// create when absent, overwrite when present, keyed by the primary id.
type DocStore interface {
	UpsertDoc(ctx context.Context, collection, id string, payload any) error
	// ReadDoc unmarshals the stored document into dest. Returns ErrDocNotFound
	// when the id has never been mirrored.
	ReadDoc(ctx context.Context, collection, id string, dest any) error
	// ListDocs returns the raw JSON documents of a collection, keyed by id.
	ListDocs(ctx context.Context, collection string) (map[string][]byte, error)
}
