/*
session.go - Per-user session registry

The portal scopes all mutable state to the signed-in user: a session wraps
one hydrated entry store and its submission workflow, is created on first
use, and is torn down on sign-out. There is no ambient global state; the
worker id travels in the request and selects the session.
*/
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/submission"
)

// workerHeader carries the authenticated worker id. The identity provider
// itself is an external collaborator; the portal only requires that a
// verified id arrives here.
const workerHeader = "X-Worker-ID"

type ctxKey int

const ctxKeyWorker ctxKey = iota

// requireWorker rejects requests without a worker id and stashes the id in
// the request context.
func requireWorker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workerID := r.Header.Get(workerHeader)
		if workerID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+workerHeader+" header", entry.ErrNoUser)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyWorker, workerID)))
	})
}

func workerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyWorker).(string)
	return id
}

// session is one user's hydrated state.
type session struct {
	store    *entry.Store
	workflow *submission.Workflow
	hydrated entry.HydrateResult
}

// sessions is the registry of live sessions keyed by worker id.
type sessions struct {
	mu   sync.Mutex
	byID map[string]*session

	build func(userID string) (*session, error)
}

func newSessions(build func(userID string) (*session, error)) *sessions {
	return &sessions{byID: make(map[string]*session), build: build}
}

// get returns the live session for a user, hydrating one on first use.
func (s *sessions) get(ctx context.Context, userID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.byID[userID]; ok {
		return sess, nil
	}

	sess, err := s.build(userID)
	if err != nil {
		return nil, err
	}
	res, err := sess.store.Hydrate(ctx)
	if err != nil {
		return nil, err
	}
	sess.hydrated = res
	s.byID[userID] = sess
	return sess, nil
}

// drop discards a user's session (sign-out).
func (s *sessions) drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, userID)
}
