package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-docchat-be/pkg/chat/dispatch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu   sync.Mutex
	docs []Document
	err  error
}

func (f *fakeCatalog) set(docs []Document, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = docs
	f.err = err
}

func (f *fakeCatalog) ReadyDocuments(_ context.Context, _ uuid.UUID) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	calls  int
	script []dispatch.Update
	hold   chan struct{} // when set, the stream stays open until closed
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, _ dispatch.Query) <-chan dispatch.Update {
	f.mu.Lock()
	f.calls++
	script := f.script
	hold := f.hold
	f.mu.Unlock()

	ch := make(chan dispatch.Update)
	go func() {
		defer close(ch)
		for _, update := range script {
			select {
			case ch <- update:
			case <-ctx.Done():
				return
			}
		}
		if hold != nil {
			select {
			case <-hold:
				select {
				case ch <- dispatch.Update{Err: errors.New("stream aborted")}:
				case <-ctx.Done():
				}
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

func readyEngine(t *testing.T, d dispatch.Dispatcher, docCount int) (*Engine, []Document) {
	t.Helper()
	catalog := &fakeCatalog{}
	catalogDocs := docs(docCount)
	catalog.set(catalogDocs, nil)

	e := NewEngine(uuid.New(), catalog, d)
	require.NoError(t, e.Refresh(context.Background()))
	return e, catalogDocs
}

func waitSettled(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool { return !e.InFlight() }, 2*time.Second, 5*time.Millisecond)
}

func TestSendAppendsUserAndAssistantMessages(t *testing.T) {
	d := &fakeDispatcher{script: []dispatch.Update{
		{Content: "hello"},
		{Content: "hello", Done: true},
	}}
	e, _ := readyEngine(t, d, 2)

	require.True(t, e.Send("  what changed last quarter?  "))
	waitSettled(t, e)

	snap := e.Snapshot()
	require.Len(t, snap.Thread, 2)
	assert.Equal(t, MessageRoleUser, snap.Thread[0].Role)
	assert.Equal(t, "what changed last quarter?", snap.Thread[0].Content)
	assert.Equal(t, MessageRoleAssistant, snap.Thread[1].Role)
	assert.Equal(t, MessageStateComplete, snap.Thread[1].State)
	assert.Equal(t, "hello", snap.Thread[1].Content)
}

func TestSendPreconditionsAreSilentNoOps(t *testing.T) {
	d := &fakeDispatcher{}
	e, _ := readyEngine(t, d, 1)
	e.ClearAll()

	assert.False(t, e.Send(""))
	assert.False(t, e.Send("   "))
	assert.False(t, e.Send("valid question")) // empty selection

	snap := e.Snapshot()
	assert.Empty(t, snap.Thread)
	assert.False(t, snap.InFlight)
	assert.Equal(t, 0, d.callCount())
}

func TestSecondSendWhileInFlightIsRejected(t *testing.T) {
	hold := make(chan struct{})
	d := &fakeDispatcher{hold: hold}
	e, _ := readyEngine(t, d, 1)

	require.True(t, e.Send("first"))
	require.Eventually(t, func() bool { return e.InFlight() }, time.Second, time.Millisecond)

	assert.False(t, e.Send("second"))
	assert.Len(t, e.Snapshot().Thread, 2, "rejected send must not append messages")
	assert.Equal(t, 1, d.callCount(), "rejected send must not open a second dispatch")

	close(hold)
	waitSettled(t, e)
}

func TestStreamingAppliesCumulativeContentInOrder(t *testing.T) {
	d := &fakeDispatcher{script: []dispatch.Update{
		{Content: "A"},
		{Content: "AB"},
		{Content: "ABC"},
		{Content: "ABC", Done: true},
	}}
	e, _ := readyEngine(t, d, 1)

	var mu sync.Mutex
	var observed []string
	e.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if len(snap.Thread) == 2 && snap.Thread[1].State == MessageStateStreaming {
			observed = append(observed, snap.Thread[1].Content)
		}
	})

	require.True(t, e.Send("q"))
	waitSettled(t, e)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "AB", "ABC"}, observed)
	assert.Equal(t, "ABC", e.Snapshot().Thread[1].Content)
}

func TestDispatchFailureResolvesToFallback(t *testing.T) {
	d := &fakeDispatcher{script: []dispatch.Update{
		{Err: errors.New("boom")},
	}}
	e, _ := readyEngine(t, d, 1)

	require.True(t, e.Send("q"))
	waitSettled(t, e)

	snap := e.Snapshot()
	require.Len(t, snap.Thread, 2)
	assert.Equal(t, MessageStateFailed, snap.Thread[1].State)
	assert.Equal(t, FallbackAnswer, snap.Thread[1].Content)
	assert.False(t, snap.InFlight, "a failed dispatch must allow retry")

	// Retry after failure opens a fresh dispatch.
	assert.True(t, e.Send("again"))
	waitSettled(t, e)
	assert.Equal(t, 2, d.callCount())
}

func TestEmptyAnswerIsNormalized(t *testing.T) {
	d := &fakeDispatcher{script: []dispatch.Update{
		{Content: "  ", Done: true},
	}}
	e, _ := readyEngine(t, d, 1)

	require.True(t, e.Send("q"))
	waitSettled(t, e)

	assert.Equal(t, EmptyAnswer, e.Snapshot().Thread[1].Content)
}

func TestRefreshDropsRemovedSelectedId(t *testing.T) {
	d := &fakeDispatcher{}
	catalog := &fakeCatalog{}
	catalogDocs := docs(3)
	catalog.set(catalogDocs, nil)

	e := NewEngine(uuid.New(), catalog, d)
	require.NoError(t, e.Refresh(context.Background()))
	require.Len(t, e.Snapshot().SelectedIds, 3)

	catalog.set(catalogDocs[:2], nil)
	require.NoError(t, e.Refresh(context.Background()))

	snap := e.Snapshot()
	assert.Len(t, snap.SelectedIds, 2)
	assert.NotContains(t, snap.SelectedIds, catalogDocs[2].Id)
}

func TestFailedRefreshRetainsStateAndFlagsError(t *testing.T) {
	d := &fakeDispatcher{}
	catalog := &fakeCatalog{}
	catalogDocs := docs(2)
	catalog.set(catalogDocs, nil)

	e := NewEngine(uuid.New(), catalog, d)
	require.NoError(t, e.Refresh(context.Background()))

	catalog.set(nil, errors.New("catalog unavailable"))
	require.Error(t, e.Refresh(context.Background()))

	snap := e.Snapshot()
	assert.True(t, snap.CatalogError)
	assert.Len(t, snap.Documents, 2, "previous catalog retained")
	assert.Len(t, snap.SelectedIds, 2, "previous selection retained")

	// Manual retry clears the flag.
	catalog.set(catalogDocs, nil)
	require.NoError(t, e.Refresh(context.Background()))
	assert.False(t, e.Snapshot().CatalogError)
}

func TestRefreshNeverTouchesThread(t *testing.T) {
	hold := make(chan struct{})
	d := &fakeDispatcher{
		script: []dispatch.Update{{Content: "partial"}},
		hold:   hold,
	}
	e, _ := readyEngine(t, d, 2)

	require.True(t, e.Send("q"))
	require.Eventually(t, func() bool {
		snap := e.Snapshot()
		return len(snap.Thread) == 2 && snap.Thread[1].Content == "partial"
	}, time.Second, time.Millisecond)

	require.NoError(t, e.Refresh(context.Background()))

	snap := e.Snapshot()
	require.Len(t, snap.Thread, 2)
	assert.Equal(t, "partial", snap.Thread[1].Content)
	assert.True(t, snap.InFlight)

	close(hold)
	waitSettled(t, e)
}

func TestCloseCancelsInFlightDispatch(t *testing.T) {
	hold := make(chan struct{})
	d := &fakeDispatcher{
		script: []dispatch.Update{{Content: "partial"}},
		hold:   hold,
	}
	defer close(hold)
	e, _ := readyEngine(t, d, 1)

	require.True(t, e.Send("q"))
	require.Eventually(t, func() bool {
		snap := e.Snapshot()
		return len(snap.Thread) == 2 && snap.Thread[1].Content == "partial"
	}, time.Second, time.Millisecond)

	before := e.Snapshot()
	e.Close()

	// The cancelled stream terminates without mutating the closed session.
	time.Sleep(50 * time.Millisecond)
	after := e.Snapshot()
	assert.Equal(t, before.Thread[1].Content, after.Thread[1].Content)
	assert.False(t, after.InFlight)

	assert.False(t, e.Send("after close"))
}

func TestSubscribeObserverDetaches(t *testing.T) {
	d := &fakeDispatcher{script: []dispatch.Update{{Content: "x", Done: true}}}
	e, catalogDocs := readyEngine(t, d, 1)

	var mu sync.Mutex
	notified := 0
	unsubscribe := e.Subscribe(func(Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		notified++
	})

	e.Toggle(catalogDocs[0].Id)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return notified == 1
	}, time.Second, time.Millisecond)

	unsubscribe()
	e.Toggle(catalogDocs[0].Id)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, notified)
}
