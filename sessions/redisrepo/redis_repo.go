package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "dashboard:session:"

	// Optimistic update retries before giving up on a contended key
	maxUpdateAttempts = 5
)

var _ sessions.Repo = (*RedisRepo)(nil)

// RedisRepo stores sessions in Redis so several gateway instances share them.
// Every write refreshes the key TTL to the idle window.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects using a redis:// URL
func New(redisURL string, ttl time.Duration) (*RedisRepo, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.New] invalid redis url")
	}
	return NewWithClient(redis.NewClient(opt), ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

// Ping verifies the connection
func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}

func (r *RedisRepo) Upsert(ctx context.Context, session *sessions.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("[RedisRepo.Upsert] sessionID is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] failed to encode session")
	}
	return r.client.Set(ctx, keyPrefix+session.ID, data, r.ttl).Err()
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dasherrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] redis get failed")
	}

	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] failed to decode session")
	}
	return &session, nil
}

// Delete relies on DEL's count so only one instance wins a concurrent sign-out
func (r *RedisRepo) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Del(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return false, errors.Wrap(err, "[RedisRepo.Delete] redis del failed")
	}
	return n == 1, nil
}

// Update is a WATCH/MULTI read-modify-write. SET XX keeps a concurrent delete
// from being undone, and a watched key that changed mid-update is retried.
func (r *RedisRepo) Update(ctx context.Context, sessionID string, mutate func(*sessions.Session)) error {
	key := keyPrefix + sessionID
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return dasherrors.ErrSessionNotFound
			}
			if err != nil {
				return errors.Wrap(err, "[RedisRepo.Update] redis get failed")
			}

			var session sessions.Session
			if err := json.Unmarshal(data, &session); err != nil {
				return errors.Wrap(err, "[RedisRepo.Update] failed to decode session")
			}
			mutate(&session)
			encoded, err := json.Marshal(&session)
			if err != nil {
				return errors.Wrap(err, "[RedisRepo.Update] failed to encode session")
			}

			var stored *redis.BoolCmd
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				stored = pipe.SetXX(ctx, key, encoded, r.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			if !stored.Val() {
				return dasherrors.ErrSessionNotFound
			}
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return errors.Errorf("[RedisRepo.Update] session %s still contended after %d attempts", sessionID, maxUpdateAttempts)
}

func (r *RedisRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return r.Update(ctx, sessionID, func(s *sessions.Session) {
		s.LastActivity = at
	})
}
