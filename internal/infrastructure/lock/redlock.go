package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"inventory-backend/pkg/logger"
)

// ErrNotAcquired được trả về khi không lấy được quorum sau hết retry
var ErrNotAcquired = errors.New("distributed lock not acquired")

// releaseScript xoá key chỉ khi nó vẫn còn là của mình (compare-and-delete).
// DEL trần sẽ xoá nhầm lock của holder khác nếu lease đã expire.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`

// Client là một Redis instance trong Redlock cluster.
// Interface nhỏ để test chạy được trên fake không cần Redis thật.
type Client interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseIfHeld(ctx context.Context, key, value string) error
}

// redisClient adapt *redis.Client sang Client
type redisClient struct {
	rdb *redis.Client
}

func NewClient(addr, password string, db int) Client {
	return &redisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			MaxRetries:   1,
		}),
	}
}

func (c *redisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *redisClient) ReleaseIfHeld(ctx context.Context, key, value string) error {
	return c.rdb.Eval(ctx, releaseScript, []string{key}, value).Err()
}

// Recorder nhận lock attempt outcomes cho metrics.
// Outcome: "acquired", "timeout", "quorum_fail".
type Recorder interface {
	LockAttempt(namespace, outcome string)
}

// Lock là một distributed lock trên N Redis instances theo Redlock:
// SET NX PX trên từng instance, giữ lock khi đạt quorum (N/2+1) và
// validity (ttl - elapsed - drift) còn dương.
type Lock struct {
	resource   string
	namespace  string
	token      string
	clients    []Client
	quorum     int
	ttl        time.Duration
	retryTimes int
	retryDelay time.Duration
	recorder   Recorder

	acquired []Client
	validity time.Duration
}

// clockDriftFactor: drift = ttl*0.01 + 2ms, theo thuật toán Redlock gốc
const (
	clockDriftFactor = 0.01
	driftConstant    = 2 * time.Millisecond
)

// Acquire thử lấy lock trên tất cả instances, tối đa retryTimes lần.
// Giữa các lần retry chờ một khoảng random quanh retryDelay để các
// contender không đập vào cùng nhịp.
func (l *Lock) Acquire(ctx context.Context) error {
	for attempt := 0; attempt < l.retryTimes; attempt++ {
		if err := ctx.Err(); err != nil {
			l.record("timeout")
			return fmt.Errorf("%w: %v", ErrNotAcquired, err)
		}

		start := time.Now()
		l.acquired = l.acquired[:0]

		for _, client := range l.clients {
			ok, err := client.SetNX(ctx, l.resource, l.token, l.ttl)
			if err != nil {
				// Instance down tính như một vote mất, không abort cả attempt
				logger.Error("redlock: setnx failed on instance", err)
				continue
			}
			if ok {
				l.acquired = append(l.acquired, client)
			}
		}

		elapsed := time.Since(start)
		drift := time.Duration(float64(l.ttl)*clockDriftFactor) + driftConstant
		validity := l.ttl - elapsed - drift

		if len(l.acquired) >= l.quorum && validity > 0 {
			l.validity = validity
			l.record("acquired")
			return nil
		}

		// Không đủ quorum: trả lại ngay các instance đã giữ được,
		// nếu không minority locks sẽ chặn contender khác đến hết TTL
		l.releaseAcquired(ctx)

		if attempt < l.retryTimes-1 {
			select {
			case <-time.After(l.jitteredDelay()):
			case <-ctx.Done():
				l.record("timeout")
				return fmt.Errorf("%w: %v", ErrNotAcquired, ctx.Err())
			}
		}
	}

	l.record("quorum_fail")
	logger.Warn("redlock: failed to acquire", map[string]interface{}{
		"resource": l.resource,
		"retries":  l.retryTimes,
	})
	return fmt.Errorf("%w: resource=%s", ErrNotAcquired, l.resource)
}

// Release trả lock trên mọi instance. Best effort: instance chết thì
// lease tự expire theo TTL.
func (l *Lock) Release(ctx context.Context) {
	l.releaseAcquired(ctx)
}

// Validity là thời gian lease còn lại tại thời điểm acquire thành công
func (l *Lock) Validity() time.Duration {
	return l.validity
}

// Token là holder id (uuid) ghi vào các instance
func (l *Lock) Token() string {
	return l.token
}

// releaseAcquired gửi release tới mọi instance, không chỉ các instance
// SetNX trả ok: một SET có thể đã ghi xong phía server nhưng reply lạc
// mất vì timeout, instance đó vẫn đang giữ key đến hết TTL nếu bỏ qua.
// ReleaseIfHeld compare-and-delete theo token nên gửi thừa vô hại.
func (l *Lock) releaseAcquired(ctx context.Context) {
	for _, client := range l.clients {
		if err := client.ReleaseIfHeld(ctx, l.resource, l.token); err != nil {
			logger.Error("redlock: release failed on instance", err)
		}
	}
	l.acquired = l.acquired[:0]
}

func (l *Lock) jitteredDelay() time.Duration {
	half := l.retryDelay / 2
	return half + time.Duration(rand.Int63n(int64(l.retryDelay)))
}

func (l *Lock) record(outcome string) {
	if l.recorder != nil {
		l.recorder.LockAttempt(l.namespace, outcome)
	}
}

func newLock(resource, namespace string, clients []Client, ttl time.Duration, retryTimes int, retryDelay time.Duration, rec Recorder) *Lock {
	return &Lock{
		resource:   resource,
		namespace:  namespace,
		token:      uuid.NewString(),
		clients:    clients,
		quorum:     len(clients)/2 + 1,
		ttl:        ttl,
		retryTimes: retryTimes,
		retryDelay: retryDelay,
		recorder:   rec,
	}
}
