package intake

// EvaluateCompleteness reports whether the session holds enough information
// to move to the photo request. It is a pure structural check over the
// merged slot values; the oracle's own completeness opinion never feeds into
// it.
func EvaluateCompleteness(schema *SlotSchema, s *Session) bool {
	return schema.IsStructurallyComplete(s.Scalars, s.Symptoms)
}
