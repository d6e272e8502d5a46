// Package session owns the tenant-scoped conversation state a UI binds to:
// the ready-document catalog and selection, the message thread, and the
// single-flight streaming request lifecycle.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-docchat-be/pkg/chat/dispatch"

	"github.com/google/uuid"
)

// CatalogSource reads the tenant's ready documents, newest first. External
// collaborator; one network read per Refresh.
type CatalogSource interface {
	ReadyDocuments(ctx context.Context, companyId uuid.UUID) ([]Document, error)
}

// Snapshot is an immutable view of the session, safe to hand to observers.
type Snapshot struct {
	CompanyId    uuid.UUID   `json:"company_id"`
	Documents    []Document  `json:"documents"`
	SelectedIds  []uuid.UUID `json:"selected_ids"`
	Thread       []Message   `json:"thread"`
	InFlight     bool        `json:"in_flight"`
	CatalogError bool        `json:"catalog_error"`
}

// Observer receives a snapshot after every state change.
type Observer func(Snapshot)

// Engine composes catalog selection, thread and dispatcher into the single
// stateful unit a UI layer binds to. One engine per user session; the engine
// serializes its own state, and inFlight is the sole send guard: a second
// send while one is in flight is rejected, never queued.
type Engine struct {
	mu sync.Mutex

	companyId  uuid.UUID
	catalog    CatalogSource
	dispatcher dispatch.Dispatcher

	selection  *Selection
	thread     []*Message
	inFlight   bool
	catalogErr bool

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	observers    map[int]Observer
	nextObserver int
}

func NewEngine(companyId uuid.UUID, catalog CatalogSource, dispatcher dispatch.Dispatcher) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		companyId:  companyId,
		catalog:    catalog,
		dispatcher: dispatcher,
		selection:  NewSelection(),
		ctx:        ctx,
		cancel:     cancel,
		observers:  make(map[int]Observer),
	}
}

func (e *Engine) CompanyId() uuid.UUID {
	return e.companyId
}

// Subscribe registers an observer and returns its unsubscribe function.
// Observers are dropped on Close, so a listener never outlives the session.
func (e *Engine) Subscribe(observer Observer) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return func() {}
	}
	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = observer
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// Refresh replaces the catalog from the source. A failed read retains the
// previous catalog and selection and raises the catalog error flag for a
// manual retry; nothing is retried automatically. The thread is never touched.
func (e *Engine) Refresh(ctx context.Context) error {
	docs, err := e.catalog.ReadyDocuments(ctx, e.companyId)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return err
	}
	if err != nil {
		e.catalogErr = true
		e.mu.Unlock()
		e.notify()
		return err
	}
	e.selection.Refresh(docs)
	e.catalogErr = false
	e.mu.Unlock()
	e.notify()
	return nil
}

func (e *Engine) Toggle(id uuid.UUID) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.selection.Toggle(id)
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) SelectAll() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.selection.SelectAll()
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) ClearAll() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.selection.ClearAll()
	e.mu.Unlock()
	e.notify()
}

// Send validates preconditions and opens one dispatch. Violations (blank
// question, empty selection, already in flight) are silent no-ops: the UI is
// expected to disable the affordance, the engine just defends against a stale
// one. Returns whether the dispatch was opened.
func (e *Engine) Send(question string) bool {
	q := strings.TrimSpace(question)

	e.mu.Lock()
	if e.closed || e.inFlight || q == "" || e.selection.Empty() {
		e.mu.Unlock()
		return false
	}

	now := time.Now()
	userMsg := newUserMessage(q, now)
	assistantMsg := newPendingAssistantMessage(now)
	e.thread = append(e.thread, userMsg, assistantMsg)
	e.inFlight = true

	selected := e.selection.SelectedIds()
	query := dispatch.Query{
		Question:       q,
		CompanyId:      e.companyId.String(),
		SelectedDocIds: make([]string, 0, len(selected)),
	}
	for _, id := range selected {
		query.SelectedDocIds = append(query.SelectedDocIds, id.String())
	}
	ctx := e.ctx
	e.mu.Unlock()
	e.notify()

	go e.consume(assistantMsg, e.dispatcher.Dispatch(ctx, query))
	return true
}

// consume folds the dispatch stream into the single pending assistant
// message, in arrival order. Once the message is terminal, or the session is
// closed, no further update may mutate it.
func (e *Engine) consume(assistantMsg *Message, updates <-chan dispatch.Update) {
	for update := range updates {
		switch {
		case update.Err != nil:
			e.resolve(assistantMsg, MessageStateFailed, FallbackAnswer)
		case update.Done:
			content := strings.TrimSpace(update.Content)
			if content == "" {
				content = EmptyAnswer
			}
			e.resolve(assistantMsg, MessageStateComplete, content)
		default:
			e.stream(assistantMsg, update.Content)
		}
	}
}

func (e *Engine) stream(assistantMsg *Message, cumulative string) {
	e.mu.Lock()
	if e.closed || assistantMsg.Terminal() {
		e.mu.Unlock()
		return
	}
	assistantMsg.State = MessageStateStreaming
	assistantMsg.Content = cumulative
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) resolve(assistantMsg *Message, state MessageState, content string) {
	e.mu.Lock()
	if e.closed || assistantMsg.Terminal() {
		e.mu.Unlock()
		return
	}
	assistantMsg.State = state
	assistantMsg.Content = content
	e.inFlight = false
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) InFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	thread := make([]Message, len(e.thread))
	for i, msg := range e.thread {
		thread[i] = *msg
	}
	return Snapshot{
		CompanyId:    e.companyId,
		Documents:    e.selection.Documents(),
		SelectedIds:  e.selection.SelectedIds(),
		Thread:       thread,
		InFlight:     e.inFlight,
		CatalogError: e.catalogErr,
	}
}

// Close tears the session down: cancels any in-flight dispatch, forces
// inFlight off and detaches all observers. The engine is unusable afterwards;
// a company change means Close plus a fresh engine, never mutation in place.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.inFlight = false
	e.observers = make(map[int]Observer)
	e.mu.Unlock()
	e.cancel()
}

func (e *Engine) notify() {
	e.mu.Lock()
	if e.closed || len(e.observers) == 0 {
		e.mu.Unlock()
		return
	}
	snapshot := e.snapshotLocked()
	observers := make([]Observer, 0, len(e.observers))
	for _, obs := range e.observers {
		observers = append(observers, obs)
	}
	e.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}
