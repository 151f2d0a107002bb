package intake

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// OpeningMessage seeds every new session's transcript.
	OpeningMessage = "Hello! I'm here to help you with your dental concern. To provide the best assistance, could you please tell me your age and gender?"

	// FallbackMessage is returned when the extraction oracle fails; the turn
	// still succeeds from the patient's point of view.
	FallbackMessage = "I'm here to help with your dental concern. Could you tell me more about what's bothering you?"

	// contextWindowTurns bounds how much transcript the oracle sees.
	contextWindowTurns = 5
)

// ErrInvalidInput is returned when a turn is missing its thread id or
// message text.
var ErrInvalidInput = errors.New("thread_id and message are required")

// Oracle is the external extraction service. Given a bounded context window,
// the currently collected values and the latest user message, it returns a
// structured guess at slot values plus a suggested next message. It is
// untrusted: any transport, timeout or shape failure surfaces as an error
// and the caller degrades to a fallback turn.
type Oracle interface {
	ProcessTurn(ctx context.Context, recentTurns []Message, current CollectedInfo, latestUserText string) (*Extraction, error)
}

// ReportService is notified once when a session reaches the photo-request
// stage, so the clinic can see the collected intake.
type ReportService interface {
	SendClinicReport(ctx context.Context, s Session) error
}

type Service interface {
	// StartSession creates (or, for a known id, returns) a session. An
	// explicit seed history replaces the default opening turn.
	StartSession(ctx context.Context, threadID string, seedHistory []Message) (*Session, error)

	// PostTurn runs one full dialogue turn: append the user message, consult
	// the oracle, merge, evaluate completeness, decide the next action and
	// persist everything atomically.
	PostTurn(ctx context.Context, threadID, message string) (*Session, error)

	// GetSession returns the current record or ErrNotFound. Never creates.
	GetSession(ctx context.Context, threadID string) (*Session, error)
}

type service struct {
	store     Store
	oracle    Oracle
	schema    *SlotSchema
	reportSvc ReportService
}

// NewService wires the dialogue controller. reportSvc may be nil when no
// clinic notification channel is configured.
func NewService(store Store, oracle Oracle, schema *SlotSchema, reportSvc ReportService) Service {
	return &service{store: store, oracle: oracle, schema: schema, reportSvc: reportSvc}
}

func (s *service) StartSession(ctx context.Context, threadID string, seedHistory []Message) (*Session, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	session := NewSession(threadID)
	if len(seedHistory) > 0 {
		session.Turns = append([]Message(nil), seedHistory...)
	}
	if err := s.store.Create(ctx, session); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Idempotent start: reuse the existing record.
			return s.store.Get(ctx, threadID)
		}
		return nil, err
	}
	log.Info().Str("thread_id", threadID).Msg("intake session started")
	return session, nil
}

func (s *service) GetSession(ctx context.Context, threadID string) (*Session, error) {
	return s.store.Get(ctx, threadID)
}

// PostTurn is the state machine's single transition function. The oracle
// call happens outside the store's per-session critical section on a
// snapshot, so a slow model never blocks other turns; the merge inside
// Update is applied against the then-current record, which keeps concurrent
// turns on one session from losing each other's values.
func (s *service) PostTurn(ctx context.Context, threadID, message string) (*Session, error) {
	message = strings.TrimSpace(message)
	if threadID == "" || message == "" {
		return nil, ErrInvalidInput
	}

	snapshot, err := s.store.GetOrCreate(ctx, threadID)
	if err != nil {
		return nil, err
	}

	extraction, oracleErr := s.oracle.ProcessTurn(ctx, snapshot.RecentTurns(contextWindowTurns), snapshot.Collected(), message)
	if err := ctx.Err(); err != nil {
		// Caller abandoned the turn; commit nothing.
		return nil, err
	}
	if oracleErr != nil {
		log.Warn().Err(oracleErr).Str("thread_id", threadID).Msg("extraction failed, using fallback reply")
	}

	var becameTerminal bool
	updated, err := s.store.Update(ctx, threadID, func(sess *Session) error {
		sess.AppendTurn(RoleUser, message)

		if oracleErr != nil {
			// Absorbed locally: no field values move, state stays as is.
			sess.LastResponse = FallbackMessage
			sess.AppendTurn(RoleAssistant, FallbackMessage)
			return nil
		}

		merged := Merge(s.schema, sess, extraction)
		*sess = *merged
		sess.IsComplete = EvaluateCompleteness(s.schema, sess)
		if extraction.SelfAssessedComplete != sess.IsComplete {
			log.Debug().
				Str("thread_id", threadID).
				Bool("oracle_complete", extraction.SelfAssessedComplete).
				Bool("evaluator_complete", sess.IsComplete).
				Msg("oracle completeness self-assessment overruled")
		}

		wasTerminal := sess.PendingAction == ActionRequestImage
		if sess.IsComplete {
			sess.PendingAction = ActionRequestImage
		} else {
			sess.PendingAction = ActionAskQuestion
		}
		becameTerminal = !wasTerminal && sess.PendingAction == ActionRequestImage

		sess.LastResponse = extraction.SuggestedMessage
		sess.AppendTurn(RoleAssistant, extraction.SuggestedMessage)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameTerminal && s.reportSvc != nil {
		go func(c Session) {
			if err := s.reportSvc.SendClinicReport(context.Background(), c); err != nil {
				log.Error().Err(err).Str("thread_id", c.ID).Msg("failed to send clinic report")
			}
		}(*updated.Clone())
	}

	return updated, nil
}
