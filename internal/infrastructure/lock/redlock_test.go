package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient là một Redis instance in-memory cho lock tests.
// dropReplies mô phỏng SET ghi xong phía server nhưng reply lạc mất.
type fakeClient struct {
	mu          sync.Mutex
	keys        map[string]string
	down        bool
	dropReplies bool
	setNXs      int
}

func newFakeClient() *fakeClient {
	return &fakeClient{keys: make(map[string]string)}
}

func (f *fakeClient) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setNXs++
	if f.down {
		return false, errors.New("connection refused")
	}
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = value
	if f.dropReplies {
		return false, errors.New("i/o timeout")
	}
	return true, nil
}

func (f *fakeClient) ReleaseIfHeld(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		return errors.New("connection refused")
	}
	if f.keys[key] == value {
		delete(f.keys, key)
	}
	return nil
}

func (f *fakeClient) holds(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingRecorder) LockAttempt(_, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func newTestManager(clients []Client, rec Recorder) *Manager {
	return NewManagerWithClients(clients, 500*time.Millisecond, 3, 10*time.Millisecond, rec)
}

func fakeCluster(n int) ([]Client, []*fakeClient) {
	clients := make([]Client, n)
	fakes := make([]*fakeClient, n)
	for i := 0; i < n; i++ {
		f := newFakeClient()
		fakes[i] = f
		clients[i] = f
	}
	return clients, fakes
}

func TestAcquireAllInstancesUp(t *testing.T) {
	clients, fakes := fakeCluster(5)
	m := newTestManager(clients, nil)
	pid := uuid.New().String()

	l := m.ProductLock(pid)
	require.NoError(t, l.Acquire(context.Background()))
	assert.Greater(t, l.Validity(), time.Duration(0))

	for _, f := range fakes {
		assert.True(t, f.holds("inventory:product:"+pid))
	}

	l.Release(context.Background())
	for _, f := range fakes {
		assert.False(t, f.holds("inventory:product:"+pid))
	}
}

func TestAcquireSurvivesMinorityFailure(t *testing.T) {
	clients, fakes := fakeCluster(5)
	fakes[0].down = true
	fakes[1].down = true

	rec := &recordingRecorder{}
	m := newTestManager(clients, rec)

	l := m.WarehouseLock(uuid.New().String())
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, []string{"acquired"}, rec.outcomes)
}

func TestAcquireFailsOnMajorityFailure(t *testing.T) {
	clients, fakes := fakeCluster(5)
	fakes[0].down = true
	fakes[1].down = true
	fakes[2].down = true

	rec := &recordingRecorder{}
	m := newTestManager(clients, rec)

	start := time.Now()
	l := m.WarehouseLock(uuid.New().String())
	err := l.Acquire(context.Background())

	require.ErrorIs(t, err, ErrNotAcquired)
	assert.Equal(t, []string{"quorum_fail"}, rec.outcomes)
	// 3 attempts with small retry delays, not hanging until TTL
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestFailedQuorumReleasesMinorityLocks(t *testing.T) {
	clients, fakes := fakeCluster(3)
	// Hai instance down: chỉ còn 1 vote, không đủ quorum 2
	fakes[1].down = true
	fakes[2].down = true

	m := newTestManager(clients, nil)
	key := "inventory:warehouse:" + uuid.Nil.String()

	l := m.WarehouseLock(uuid.Nil.String())
	require.Error(t, l.Acquire(context.Background()))

	// Instance còn sống không được giữ lock treo lại
	assert.False(t, fakes[0].holds(key))
}

func TestFailedQuorumReleasesUnackedWrites(t *testing.T) {
	clients, fakes := fakeCluster(3)
	// Hai instance ghi key xong nhưng reply lạc mất: vote không tính,
	// key vẫn nằm trên server
	fakes[1].dropReplies = true
	fakes[2].dropReplies = true

	m := NewManagerWithClients(clients, 500*time.Millisecond, 1, time.Millisecond, nil)
	pid := uuid.New().String()
	key := "inventory:product:" + pid

	l := m.ProductLock(pid)
	require.ErrorIs(t, l.Acquire(context.Background()), ErrNotAcquired)

	// Release phải chạm mọi instance, kể cả instance không trả được reply,
	// nếu không key mồ côi chặn contender khác đến hết TTL
	for i, f := range fakes {
		assert.False(t, f.holds(key), "instance %d still holds the key", i)
	}
}

func TestSecondHolderBlockedUntilRelease(t *testing.T) {
	clients, _ := fakeCluster(3)
	m := newTestManager(clients, nil)
	pid := uuid.New().String()
	wid := uuid.New().String()

	first := m.ProductWarehouseLock(pid, wid)
	require.NoError(t, first.Acquire(context.Background()))

	second := m.ProductWarehouseLock(pid, wid)
	require.ErrorIs(t, second.Acquire(context.Background()), ErrNotAcquired)

	first.Release(context.Background())
	require.NoError(t, second.Acquire(context.Background()))
}

func TestReleaseDoesNotClobberOtherHolder(t *testing.T) {
	f := newFakeClient()
	m := newTestManager([]Client{f}, nil)
	pid := uuid.New().String()
	key := "inventory:product:" + pid

	stale := m.ProductLock(pid)
	require.NoError(t, stale.Acquire(context.Background()))

	// Giả lập lease của stale expire rồi holder mới acquire
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()

	current := m.ProductLock(pid)
	require.NoError(t, current.Acquire(context.Background()))

	// Release của stale holder không được xoá lock của current holder
	stale.Release(context.Background())
	assert.True(t, f.holds(key))
}

func TestMutualExclusionUnderContention(t *testing.T) {
	clients, _ := fakeCluster(3)
	m := NewManagerWithClients(clients, 2*time.Second, 50, 2*time.Millisecond, nil)
	pid := uuid.New().String()

	var holders int32
	var maxHolders int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := m.FlashSaleLock(pid)
			if err := l.Acquire(context.Background()); err != nil {
				return
			}
			mu.Lock()
			holders++
			if holders > maxHolders {
				maxHolders = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			l.Release(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxHolders)
}

func TestLockKeyNamespaces(t *testing.T) {
	clients, _ := fakeCluster(3)
	m := newTestManager(clients, nil)
	pid := "a8098c1a-f86e-11da-bd1a-00112444be1e"
	wid := "6fa459ea-ee8a-3ca4-894e-db77e160355e"

	assert.Equal(t, "inventory:product:"+pid, m.ProductLock(pid).resource)
	assert.Equal(t, "inventory:product:"+pid+":warehouse:"+wid, m.ProductWarehouseLock(pid, wid).resource)
	assert.Equal(t, "inventory:warehouse:"+wid, m.WarehouseLock(wid).resource)
	assert.Equal(t, "inventory:order:ORD-1001", m.OrderLock("ORD-1001").resource)
	assert.Equal(t, "inventory:flashsale:"+pid, m.FlashSaleLock(pid).resource)
}

func TestQuorumSizes(t *testing.T) {
	for _, tt := range []struct {
		n, quorum int
	}{
		{1, 1}, {3, 2}, {5, 3}, {7, 4},
	} {
		clients, _ := fakeCluster(tt.n)
		m := newTestManager(clients, nil)
		l := m.ProductLock(uuid.New().String())
		assert.Equal(t, tt.quorum, l.quorum, "n=%d", tt.n)
	}
}
