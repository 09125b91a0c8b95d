package repo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agladiator/internal/bootstrap"
	apperr "agladiator/internal/errors"
)

const recordKeyPrefix = "record:"

// RecordRepository keeps the SGF record of every match in Redis. Records
// expire RECORD_TTL after their last write.
type RecordRepository struct {
	log   *zap.SugaredLogger
	redis *redis.Client
	ttl   time.Duration
}

func NewRecordRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client) *RecordRepository {
	return &RecordRepository{
		log:   log,
		redis: redis,
		ttl:   cfg.RecordTTL,
	}
}

func recordKey(matchID string) string {
	return recordKeyPrefix + matchID
}

func (r *RecordRepository) SaveRecord(ctx context.Context, matchID string, sgfText string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.redis.Set(ctx, recordKey(matchID), sgfText, r.ttl).Err()
}

func (r *RecordRepository) LoadRecord(ctx context.Context, matchID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rec, err := r.redis.Get(ctx, recordKey(matchID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperr.ErrRecordNotFound
	} else if err != nil {
		r.log.Error(err)
		return "", err
	}
	return rec, nil
}
