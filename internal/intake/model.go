package intake

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Action is the next step the agent intends to take after a turn.
type Action string

const (
	// ActionAskQuestion means required information is still missing and the
	// assistant message is a clarifying question.
	ActionAskQuestion Action = "ask_question"
	// ActionRequestImage is the terminal action: intake is complete and the
	// assistant message asks the patient for a photo of the affected area.
	ActionRequestImage Action = "request_image"
)

// Message is a single utterance in the consultation transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the per-thread intake record. Turns is append-only and seeded
// with the opening assistant message, so it is never empty for a stored
// session. IsComplete is always the evaluator's output for the current
// Scalars/Symptoms and is recomputed on every merge, never set directly.
type Session struct {
	ID       string            `json:"id"`
	Turns    []Message         `json:"turns"`
	Scalars  map[string]string `json:"scalars"`
	Symptoms map[string]string `json:"symptoms"`
	Notes    string            `json:"notes"`

	IsComplete    bool   `json:"is_complete"`
	PendingAction Action `json:"pending_action"`
	LastResponse  string `json:"last_response"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an empty collecting-state session for the given id,
// seeded with the opening assistant message.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID: id,
		Turns: []Message{
			{Role: RoleAssistant, Content: OpeningMessage, Timestamp: now},
		},
		Scalars:       map[string]string{},
		Symptoms:      map[string]string{},
		IsComplete:    false,
		PendingAction: ActionAskQuestion,
		LastResponse:  OpeningMessage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy. Mutating the copy never affects the original;
// the merge engine and the stores rely on this.
func (s *Session) Clone() *Session {
	c := *s
	c.Turns = append([]Message(nil), s.Turns...)
	c.Scalars = make(map[string]string, len(s.Scalars))
	for k, v := range s.Scalars {
		c.Scalars[k] = v
	}
	c.Symptoms = make(map[string]string, len(s.Symptoms))
	for k, v := range s.Symptoms {
		c.Symptoms[k] = v
	}
	return &c
}

// AppendTurn adds an utterance to the transcript.
func (s *Session) AppendTurn(role, content string) {
	s.Turns = append(s.Turns, Message{Role: role, Content: content, Timestamp: time.Now()})
}

// RecentTurns returns up to n of the latest transcript messages, used as the
// bounded context window for the extraction oracle.
func (s *Session) RecentTurns(n int) []Message {
	if n <= 0 || len(s.Turns) <= n {
		return append([]Message(nil), s.Turns...)
	}
	return append([]Message(nil), s.Turns[len(s.Turns)-n:]...)
}

// CollectedInfo is the public view of the gathered slot values, shaped like
// the collected_info envelope of the intake API.
type CollectedInfo struct {
	Age              string            `json:"age"`
	Gender           string            `json:"gender"`
	AffectedArea     string            `json:"affected_area"`
	Symptoms         map[string]string `json:"symptoms"`
	DentalHistory    string            `json:"dental_history"`
	SmokingStatus    string            `json:"smoking_status"`
	Duration         string            `json:"duration"`
	OtherInformation string            `json:"other_information"`
}

// Collected builds the public slot-value view for this session.
func (s *Session) Collected() CollectedInfo {
	symptoms := make(map[string]string, len(s.Symptoms))
	for k, v := range s.Symptoms {
		symptoms[k] = v
	}
	return CollectedInfo{
		Age:              s.Scalars[FieldAge],
		Gender:           s.Scalars[FieldGender],
		AffectedArea:     s.Scalars[FieldAffectedArea],
		Symptoms:         symptoms,
		DentalHistory:    s.Scalars[FieldDentalHistory],
		SmokingStatus:    s.Scalars[FieldSmokingStatus],
		Duration:         s.Scalars[FieldDuration],
		OtherInformation: s.Notes,
	}
}
