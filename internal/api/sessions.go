package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront-view/internal/catalog"
	"github.com/example/storefront-view/internal/checkout"
	"github.com/example/storefront-view/internal/detail"
	"github.com/example/storefront-view/internal/events"
	"github.com/example/storefront-view/internal/upstream"
)

// Session bundles the view-state surfaces of one browsing session. Fetches
// issued by the surfaces run on the session's own context, not the HTTP
// request's: a fetch must outlive the request that triggered it, and dies
// only with the session.
type Session struct {
	ID        string
	Catalog   *catalog.Orchestrator
	Detail    *detail.View
	Checkout  *checkout.View
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the session-lifetime context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// SessionRegistry is the in-memory registry of live browsing sessions.
// Sessions are ephemeral; nothing here survives a restart.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	source      upstream.Commerce
	publisher   events.Publisher
	shippingFee int
}

func NewSessionRegistry(source upstream.Commerce, publisher events.Publisher, shippingFee int) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*Session),
		source:      source,
		publisher:   publisher,
		shippingFee: shippingFee,
	}
}

// Create builds a new session with fresh view-state surfaces.
func (r *SessionRegistry) Create() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:        uuid.New().String(),
		Catalog:   catalog.NewOrchestrator(r.source),
		Detail:    detail.NewView(r.source),
		Checkout:  checkout.NewView(r.source, r.publisher, r.shippingFee),
		CreatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	return sess
}

// Get looks up a session by id.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Delete removes a session and cancels its in-flight fetches.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		sess.cancel()
	}
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
