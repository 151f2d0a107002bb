package intake

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// PostgresStore persists one row per session, with the transcript and slot
// values stored as JSONB columns. Per-session
// serialization for Update comes from a row-level lock
// (SELECT ... FOR UPDATE) inside a transaction, so concurrent turns on the
// same id queue up while other sessions stay unaffected.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	turns, scalars, symptoms, err := marshalSession(s)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, turns, scalars, symptoms, notes, last_response, is_complete, pending_action, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		s.ID, turns, scalars, symptoms, s.Notes, s.LastResponse, s.IsComplete, string(s.PendingAction), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, turns, scalars, symptoms, notes, last_response, is_complete, pending_action, created_at, updated_at
		FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (p *PostgresStore) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if err := p.Create(ctx, NewSession(id)); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return nil, err
	}
	return p.Get(ctx, id)
}

func (p *PostgresStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin update")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, turns, scalars, symptoms, notes, last_response, is_complete, pending_action, created_at, updated_at
		FROM sessions WHERE id = $1 FOR UPDATE`, id)
	session, err := scanSession(row)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}
	session.UpdatedAt = time.Now()

	turns, scalars, symptoms, err := marshalSession(session)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET turns = $2, scalars = $3, symptoms = $4, notes = $5, last_response = $6, is_complete = $7, pending_action = $8, updated_at = $9
		WHERE id = $1`,
		session.ID, turns, scalars, symptoms, session.Notes, session.LastResponse, session.IsComplete, string(session.PendingAction), session.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "update session")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit update")
	}
	return session, nil
}

func marshalSession(s *Session) (turns, scalars, symptoms []byte, err error) {
	if turns, err = json.Marshal(s.Turns); err != nil {
		return nil, nil, nil, errors.Wrap(err, "marshal turns")
	}
	if scalars, err = json.Marshal(s.Scalars); err != nil {
		return nil, nil, nil, errors.Wrap(err, "marshal scalars")
	}
	if symptoms, err = json.Marshal(s.Symptoms); err != nil {
		return nil, nil, nil, errors.Wrap(err, "marshal symptoms")
	}
	return turns, scalars, symptoms, nil
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	var turnsJSON, scalarsJSON, symptomsJSON []byte
	var action string
	err := row.Scan(&s.ID, &turnsJSON, &scalarsJSON, &symptomsJSON, &s.Notes, &s.LastResponse, &s.IsComplete, &action, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "scan session")
	}
	s.PendingAction = Action(action)
	if err := json.Unmarshal(turnsJSON, &s.Turns); err != nil {
		return nil, errors.Wrap(err, "unmarshal turns")
	}
	if err := json.Unmarshal(scalarsJSON, &s.Scalars); err != nil {
		return nil, errors.Wrap(err, "unmarshal scalars")
	}
	if err := json.Unmarshal(symptomsJSON, &s.Symptoms); err != nil {
		return nil, errors.Wrap(err, "unmarshal symptoms")
	}
	if s.Scalars == nil {
		s.Scalars = map[string]string{}
	}
	if s.Symptoms == nil {
		s.Symptoms = map[string]string{}
	}
	return &s, nil
}
