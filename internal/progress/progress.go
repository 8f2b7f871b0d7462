package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"traffic-analytics-service/internal/model"
)

const keyPrefix = "traffic:progress:"

// Store keeps per-video processing progress in redis. Entries expire after ttl
// so stale progress disappears on its own.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func (s *Store) Available() bool {
	return s != nil && s.client != nil
}

func (s *Store) Update(ctx context.Context, videoID string, percent int, message string) error {
	return s.put(ctx, model.Progress{VideoID: videoID, Percent: clampPercent(percent), Message: message})
}

func (s *Store) Complete(ctx context.Context, videoID, message string) error {
	return s.put(ctx, model.Progress{VideoID: videoID, Percent: 100, Message: message, Done: true})
}

func (s *Store) Fail(ctx context.Context, videoID, message string) error {
	return s.put(ctx, model.Progress{VideoID: videoID, Percent: 0, Message: message, Done: true})
}

// Get returns the latest progress for videoID and whether one was recorded.
func (s *Store) Get(ctx context.Context, videoID string) (model.Progress, bool, error) {
	if !s.Available() {
		return model.Progress{}, false, nil
	}
	data, err := s.client.Get(ctx, keyPrefix+videoID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Progress{}, false, nil
	}
	if err != nil {
		return model.Progress{}, false, err
	}
	var p model.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Progress{}, false, err
	}
	return p, true, nil
}

func (s *Store) Clear(ctx context.Context, videoID string) error {
	if !s.Available() {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+videoID).Err()
}

func (s *Store) put(ctx context.Context, p model.Progress) error {
	if !s.Available() {
		return nil
	}
	p.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+p.VideoID, data, s.ttl).Err()
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
