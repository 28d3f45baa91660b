package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/example/cottonstyle/internal/redisx"
)

// ErrDraftNotFound is returned when the user has no draft, or it expired.
var ErrDraftNotFound = errors.New("checkout draft not found")

// ErrLocked is returned by Lock while another caller holds the user's lock.
var ErrLocked = errors.New("checkout is locked")

// Store keeps one draft per user.
type Store interface {
	Get(ctx context.Context, userID string) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, userID string) error
	Lock(ctx context.Context, userID string, ttl time.Duration) (unlock func(), err error)
}

// RedisStore keeps drafts as JSON with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Draft, error) {
	raw, err := s.rdb.Get(ctx, redisx.CheckoutDraftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get checkout draft")
	}

	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, errors.Wrap(err, "decode checkout draft")
	}
	return &draft, nil
}

// Save overwrites the user's draft and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, draft *Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "encode checkout draft")
	}
	return errors.Wrap(s.rdb.Set(ctx, redisx.CheckoutDraftKey(draft.UserID), raw, s.ttl).Err(), "save checkout draft")
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return errors.Wrap(s.rdb.Del(ctx, redisx.CheckoutDraftKey(userID)).Err(), "delete checkout draft")
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock takes the user's checkout lock for at most ttl. unlock only
// releases the lock while this caller still owns it.
func (s *RedisStore) Lock(ctx context.Context, userID string, ttl time.Duration) (func(), error) {
	key := redisx.CheckoutLockKey(userID)
	token := uuid.NewString()

	ok, err := s.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, "lock checkout")
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		if err := unlockScript.Run(context.Background(), s.rdb, []string{key}, token).Err(); err != nil {
			log.WithError(err).WithField("user", userID).Warn("unlock checkout")
		}
	}, nil
}
