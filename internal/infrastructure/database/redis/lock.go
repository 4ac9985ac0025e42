package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// RunLock serializes analysis runs per assessment across instances.  One
// SETNX key per assessment with a TTL backstop so a crashed run cannot wedge
// the assessment forever.
type RunLock struct {
	client *Client
	ttl    time.Duration
	log    logging.Logger
}

// NewRunLock builds the lock helper.  ttl should comfortably exceed the
// longest expected analysis run.
func NewRunLock(client *Client, ttl time.Duration, log logging.Logger) *RunLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RunLock{client: client, ttl: ttl, log: log}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Acquire takes the per-assessment lock or fails immediately when another
// run holds it.  The returned release func is safe to call once.
func (l *RunLock) Acquire(ctx context.Context, assessmentID int64) (func(), error) {
	key := l.client.key("analysis", "lock", strconv.FormatInt(assessmentID, 10))
	token := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to acquire analysis lock")
	}
	if !ok {
		return nil, errors.New(errors.CodeAnalysisInProgress, "analysis already in progress")
	}

	release := func() {
		// release must work even when the run's context was cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.client.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release analysis lock",
				logging.Int64("assessment_id", assessmentID),
				logging.Err(err))
		}
	}
	return release, nil
}
