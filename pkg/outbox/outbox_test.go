package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu       sync.Mutex
	pending  []*Event
	inserted []*Event
	sent     []int64
	failed   []int64
	replays  int
	getErr   error
}

func (m *memStore) InsertEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, e)
	return nil
}

// GetPendingEvents 只返回还没标记 sent 的事件
func (m *memStore) GetPendingEvents(_ context.Context, limit int) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*Event
	for _, e := range m.pending {
		if len(out) == limit {
			break
		}
		if !slices.Contains(m.sent, e.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) MarkAsSent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, id)
	return nil
}

func (m *memStore) MarkAsFailed(_ context.Context, id int64, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, id)
	return nil
}

func (m *memStore) ReplayFailed(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replays++
	return 0, nil
}

func (m *memStore) snapshot() (sent, failed []int64, replays int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent), slices.Clone(m.failed), m.replays
}

type sentMsg struct {
	key  string
	body string
}

// fakeSender 模拟一条 MQ 连接；publish 到 dieOn 时连接断开
type fakeSender struct {
	mu     sync.Mutex
	out    []sentMsg
	failOn string
	dieOn  string
	dead   bool
	closed bool
}

func (f *fakeSender) Publish(_ context.Context, routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return errors.New("channel/connection is not open")
	}
	if routingKey == f.dieOn {
		f.dead = true
		return errors.New("channel/connection is not open")
	}
	if routingKey == f.failOn {
		return errors.New("publish rejected")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.out = append(f.out, sentMsg{key: routingKey, body: string(b)})
	return nil
}

func (f *fakeSender) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead && !f.closed
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) messages() []sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.out)
}

func TestPublisherStagesEvent(t *testing.T) {
	store := &memStore{}
	p := NewPublisher(store)

	require.NoError(t, p.Publish(context.Background(), "task.created", map[string]string{"task_id": "t1"}))

	require.Len(t, store.inserted, 1)
	e := store.inserted[0]
	assert.Equal(t, "task", e.AggregateType)
	assert.Equal(t, "task.created", e.RoutingKey)
	assert.Equal(t, StatusPending, e.Status)
	assert.JSONEq(t, `{"task_id":"t1"}`, string(e.Payload))
}

func TestDispatcherSendsPayloadVerbatim(t *testing.T) {
	store := &memStore{pending: []*Event{
		{ID: 1, RoutingKey: "task.created", Payload: json.RawMessage(`{"task_id":"t1"}`)},
		{ID: 2, RoutingKey: "task.deleted", Payload: json.RawMessage(`{"task_id":"t2"}`)},
	}}
	sender := &fakeSender{}
	d := NewDispatcher(store, zap.NewNop())

	assert.Equal(t, 2, d.processPendingEvents(context.Background(), sender))
	assert.Equal(t, []sentMsg{
		{key: "task.created", body: `{"task_id":"t1"}`},
		{key: "task.deleted", body: `{"task_id":"t2"}`},
	}, sender.messages())
	assert.Equal(t, []int64{1, 2}, store.sent)
	assert.Empty(t, store.failed)
}

func TestDispatcherMarksFailures(t *testing.T) {
	store := &memStore{pending: []*Event{
		{ID: 1, RoutingKey: "task.updated", Payload: json.RawMessage(`{}`)},
		{ID: 2, RoutingKey: "task.created", Payload: json.RawMessage(`{}`)},
	}}
	d := NewDispatcher(store, zap.NewNop())

	assert.Equal(t, 1, d.processPendingEvents(context.Background(), &fakeSender{failOn: "task.updated"}))
	assert.Equal(t, []int64{1}, store.failed)
	assert.Equal(t, []int64{2}, store.sent)
}

func TestDispatcherLostConnectionKeepsRetryBudget(t *testing.T) {
	store := &memStore{pending: []*Event{
		{ID: 1, RoutingKey: "task.created", Payload: json.RawMessage(`{}`)},
		{ID: 2, RoutingKey: "task.updated", Payload: json.RawMessage(`{}`)},
		{ID: 3, RoutingKey: "task.deleted", Payload: json.RawMessage(`{}`)},
	}}
	d := NewDispatcher(store, zap.NewNop())

	assert.Equal(t, 1, d.processPendingEvents(context.Background(), &fakeSender{dieOn: "task.updated"}))
	assert.Equal(t, []int64{1}, store.sent)
	assert.Empty(t, store.failed)
}

func TestDispatcherRespectsBatchSize(t *testing.T) {
	store := &memStore{}
	for i := int64(1); i <= 5; i++ {
		store.pending = append(store.pending, &Event{ID: i, RoutingKey: "task.created", Payload: json.RawMessage(`{}`)})
	}
	d := NewDispatcher(store, zap.NewNop())
	d.batchSize = 3

	assert.Equal(t, 3, d.processPendingEvents(context.Background(), &fakeSender{}))
}

func TestDispatcherStoreError(t *testing.T) {
	store := &memStore{getErr: errors.New("db down")}
	d := NewDispatcher(store, zap.NewNop())

	assert.Zero(t, d.processPendingEvents(context.Background(), &fakeSender{}))
}

func TestDispatcherRunReconnectsAfterConnectionLoss(t *testing.T) {
	store := &memStore{pending: []*Event{
		{ID: 1, RoutingKey: "task.created", Payload: json.RawMessage(`{"task_id":"t1"}`)},
		{ID: 2, RoutingKey: "task.deleted", Payload: json.RawMessage(`{"task_id":"t1"}`)},
	}}
	first := &fakeSender{dieOn: "task.deleted"}
	second := &fakeSender{}

	var mu sync.Mutex
	dials := 0
	dial := func() (Sender, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		switch dials {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return first, nil
		default:
			return second, nil
		}
	}

	d := NewDispatcher(store, zap.NewNop())
	d.interval = 5 * time.Millisecond
	d.reconnectInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, dial)
	}()

	require.Eventually(t, func() bool {
		sent, _, _ := store.snapshot()
		return len(sent) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	sent, failed, replays := store.snapshot()
	assert.Equal(t, []int64{1, 2}, sent)
	assert.Empty(t, failed)
	assert.Equal(t, 2, replays)

	assert.Equal(t, []sentMsg{{key: "task.created", body: `{"task_id":"t1"}`}}, first.messages())
	assert.Equal(t, []sentMsg{{key: "task.deleted", body: `{"task_id":"t1"}`}}, second.messages())
	assert.False(t, first.IsConnected())
	assert.False(t, second.IsConnected())
}
