package infra

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltKV é um KV persistente em arquivo (bbolt). Cada valor é gravado como
// 8 bytes big-endian com a expiração (unix nanos, 0 = nunca) seguidos do payload.
type BoltKV struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// OpenBoltKV abre (ou cria) o arquivo e o bucket.
func OpenBoltKV(path, bucket string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if bucket == "" {
		bucket = "boundaries"
	}
	name := []byte(bucket)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return &BoltKV{db: db, bucket: name, now: time.Now}, nil
}

func (s *BoltKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

func (s *BoltKV) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	var found, expired bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if len(v) < 8 {
			return nil
		}
		found = true
		expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
		if expiresAt > 0 && s.now().UnixNano() > expiresAt {
			expired = true
			return nil
		}
		// o slice só é válido dentro da transação
		out = append([]byte(nil), v[8:]...)
		return nil
	})
	switch {
	case err != nil:
		return nil, err
	case !found:
		return nil, ErrKVNotFound
	case expired:
		return nil, ErrKVExpired
	}
	return out, nil
}

func (s *BoltKV) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}
