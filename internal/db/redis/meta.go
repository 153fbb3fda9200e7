package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/propdex/internal/db"
)

// GetMeta reads field of the hash at key.
func (s *Store) GetMeta(ctx context.Context, key, field string) (string, error) {
	cmd := s.b().Hget().Key(key).Field(field).Build()
	v, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", db.ErrKeyNotFound
		}
		return "", &db.Error{Op: db.OpHGet, Err: err}
	}
	return v, nil
}

// SetMeta writes field of the hash at key.
func (s *Store) SetMeta(ctx context.Context, key, field, value string) error {
	cmd := s.b().Hset().Key(key).FieldValue().FieldValue(field, value).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}
