package worker

import (
	"context"
	"encoding/json"
	"testing"

	"stockyard/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDocStore struct {
	docs map[string]map[string]json.RawMessage
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: map[string]map[string]json.RawMessage{}}
}

func (m *memDocStore) UpsertDoc(ctx context.Context, collection, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]json.RawMessage{}
	}
	m.docs[collection][id] = data
	return nil
}

func (m *memDocStore) ReadDoc(ctx context.Context, collection, id string, dest any) error {
	return json.Unmarshal(m.docs[collection][id], dest)
}

func (m *memDocStore) ListDocs(ctx context.Context, collection string) (map[string][]byte, error) {
	out := map[string][]byte{}
	for id, d := range m.docs[collection] {
		out[id] = d
	}
	return out, nil
}

func mirrorJob(t *testing.T, p MirrorSyncPayload) Job {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return Job{ID: "job-1", Type: "mirror_sync", Payload: data}
}

func TestMirrorWorkerUpsertsDocument(t *testing.T) {
	store := newMemDocStore()
	w := NewMirrorSyncWorker(store, infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil, nil, 3)

	doc := json.RawMessage(`{"id":42,"sku":"BEV-001","quantity":70}`)
	w.Process(context.Background(), mirrorJob(t, MirrorSyncPayload{
		Collection: "products",
		DocID:      "42",
		Document:   doc,
	}))

	var stored struct {
		SKU      string `json:"sku"`
		Quantity int    `json:"quantity"`
	}
	require.NoError(t, store.ReadDoc(context.Background(), "products", "42", &stored))
	assert.Equal(t, "BEV-001", stored.SKU)
	assert.Equal(t, 70, stored.Quantity)
}

func TestMirrorWorkerUpsertIsIdempotent(t *testing.T) {
	store := newMemDocStore()
	w := NewMirrorSyncWorker(store, infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil, nil, 3)

	job := mirrorJob(t, MirrorSyncPayload{
		Collection: "products",
		DocID:      "42",
		Document:   json.RawMessage(`{"id":42,"quantity":70}`),
	})
	w.Process(context.Background(), job)
	w.Process(context.Background(), job)

	assert.Len(t, store.docs["products"], 1, "same doc id must overwrite, not duplicate")
}

func TestMirrorWorkerIgnoresMalformedPayload(t *testing.T) {
	store := newMemDocStore()
	w := NewMirrorSyncWorker(store, infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil, nil, 3)

	// Must not panic or write anything.
	w.Process(context.Background(), Job{ID: "job-2", Type: "mirror_sync", Payload: json.RawMessage(`{`)})
	assert.Empty(t, store.docs)
}
