package submission

import (
	"context"
	"errors"

	"github.com/warp/timeportal/entry"
)

// ErrDocumentExists is returned by DocumentStore.Create when the document
// id is already taken. This is the uniqueness semantics the workflow's
// double-submit guard relies on.
var ErrDocumentExists = errors.New("document already exists")

// DocumentStore is the remote persistence collaborator for submissions.
type DocumentStore interface {
	// Create persists a new submission. Fails with ErrDocumentExists if
	// docID is already present; it never overwrites.
	Create(ctx context.Context, docID string, rec Record) error

	// Get returns the submission for docID, if any.
	Get(ctx context.Context, docID string) (Record, bool, error)

	// ListByWorker returns all submissions for a worker.
	ListByWorker(ctx context.Context, workerID string) ([]Record, error)
}

// remoteSource adapts a DocumentStore to the entry store's hydration
// contract.
type remoteSource struct {
	docs DocumentStore
}

// NewRemoteSource wraps a DocumentStore as an entry.RemoteSource so the
// entry store can hydrate submitted weeks from it.
func NewRemoteSource(docs DocumentStore) entry.RemoteSource {
	return &remoteSource{docs: docs}
}

func (rs *remoteSource) SubmissionsForUser(ctx context.Context, userID string) ([]entry.RemoteWeek, error) {
	records, err := rs.docs.ListByWorker(ctx, userID)
	if err != nil {
		return nil, err
	}
	weeks := make([]entry.RemoteWeek, 0, len(records))
	for _, rec := range records {
		week, err := rec.ToRemoteWeek()
		if err != nil {
			continue // malformed week ids never break hydration
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}
