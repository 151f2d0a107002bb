package intake

import (
	"strings"
)

// Extraction is the structured guess the oracle produced for a single turn.
// The maps carry only fields the oracle confidently reported: a field the
// oracle answered with null is simply absent. The oracle is untrusted, so
// the maps may still contain field names outside the schema.
type Extraction struct {
	Scalars  map[string]string
	Symptoms map[string]string
	Note     string

	SuggestedMessage     string
	SelfAssessedComplete bool
}

// Merge folds an extraction into a session, field by field, and returns a
// new session copy. The input session is never mutated.
//
// Rules:
//   - a reported scalar or symptom value overwrites the stored one
//     (last-write-wins per turn); absent fields preserve existing values
//   - symptoms merge key-by-key, never replacing the map wholesale
//   - a non-empty note fragment is appended to Notes, newline-joined
//   - field names outside the schema are dropped silently
func Merge(schema *SlotSchema, session *Session, ext *Extraction) *Session {
	merged := session.Clone()
	for field, value := range ext.Scalars {
		if value == "" || !schema.IsScalarField(field) {
			continue
		}
		merged.Scalars[field] = value
	}
	for field, value := range ext.Symptoms {
		if value == "" || !schema.IsSymptomField(field) {
			continue
		}
		merged.Symptoms[field] = value
	}
	if fragment := strings.TrimSpace(ext.Note); fragment != "" {
		merged.Notes = strings.TrimSpace(merged.Notes + "\n" + fragment)
	}
	return merged
}
