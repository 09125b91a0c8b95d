package repo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"agladiator/internal/bootstrap"
)

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "record:m1", recordKey("m1"))
}

func TestRecordRepositoryReportsUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRecordRepository(bootstrap.Config{RecordTTL: time.Hour}, zap.NewNop().Sugar(), client)
	ctx := context.Background()

	assert.Error(t, repo.SaveRecord(ctx, "m1", "(;FF[4])"))
	_, err := repo.LoadRecord(ctx, "m1")
	assert.Error(t, err)
}
