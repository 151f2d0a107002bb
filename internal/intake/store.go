package intake

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no session exists for an id.
	ErrNotFound = errors.New("session not found")
	// ErrAlreadyExists is returned when creating a session whose id is taken.
	ErrAlreadyExists = errors.New("session already exists")
)

// Store is keyed storage for intake sessions. Update must be atomic with
// respect to other updates on the same session id: concurrent updates to
// one id serialize, updates to distinct ids proceed in parallel. All
// methods return detached copies; callers never share memory with the
// stored record.
type Store interface {
	// Create persists a fresh session, failing with ErrAlreadyExists if the
	// id is taken.
	Create(ctx context.Context, s *Session) error

	// Get returns the session for id or ErrNotFound. It never creates a
	// record as a side effect.
	Get(ctx context.Context, id string) (*Session, error)

	// GetOrCreate returns the existing session or persists and returns a
	// fresh one seeded with the opening assistant turn.
	GetOrCreate(ctx context.Context, id string) (*Session, error)

	// Update applies fn to the current record for id and persists the
	// result, serialized against other updates on the same id. If fn
	// returns an error nothing is persisted. Returns ErrNotFound if the
	// session does not exist.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
}
