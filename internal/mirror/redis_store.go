package mirror

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrDocNotFound is returned by ReadDoc when the document was never mirrored.
var ErrDocNotFound = errors.New("mirror: document not found")

const keyPrefix = "mirror:"

// RedisStore keeps each collection in one Redis hash
// (mirror:<collection> → field=id, value=JSON document), so both stores stay
// keyed by the same primary id.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) UpsertDoc(ctx context.Context, collection, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, keyPrefix+collection, id, data).Err()
}

func (s *RedisStore) ReadDoc(ctx context.Context, collection, id string, dest any) error {
	raw, err := s.rdb.HGet(ctx, keyPrefix+collection, id).Result()
	if errors.Is(err, redis.Nil) {
		return ErrDocNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (s *RedisStore) ListDocs(ctx context.Context, collection string) (map[string][]byte, error) {
	raw, err := s.rdb.HGetAll(ctx, keyPrefix+collection).Result()
	if err != nil {
		return nil, err
	}
	docs := make(map[string][]byte, len(raw))
	for id, doc := range raw {
		docs[id] = []byte(doc)
	}
	return docs, nil
}
