package intake

// Field names recognised by the intake schema. These mirror the slots the
// extraction oracle is prompted to fill.
const (
	FieldAge              = "age"
	FieldGender           = "gender"
	FieldAffectedArea     = "affected_area"
	FieldDentalHistory = "dental_history"
	FieldSmokingStatus = "smoking_status"
	FieldDuration      = "duration"

	SymptomPain          = "pain"
	SymptomSensitivity   = "sensitivity"
	SymptomSwelling      = "swelling"
	SymptomBleeding      = "bleeding"
	SymptomDiscoloration = "discoloration"
	SymptomLooseness     = "looseness"
)

// SlotSchema describes which fields a consultation must collect before the
// intake can move on to requesting a photo. It is immutable after
// construction; all accessors return copies.
type SlotSchema struct {
	requiredScalars []string
	symptomGroup    []string
	optionalScalars []string

	scalarSet  map[string]bool
	symptomSet map[string]bool
}

// DefaultSchema returns the dental intake schema: age, gender and affected
// area are mandatory, at least one symptom from the symptom group must be
// reported, and history/lifestyle fields are optional.
func DefaultSchema() *SlotSchema {
	return NewSlotSchema(
		[]string{FieldAge, FieldGender, FieldAffectedArea},
		[]string{SymptomPain, SymptomSensitivity, SymptomSwelling, SymptomBleeding, SymptomDiscoloration, SymptomLooseness},
		[]string{FieldDentalHistory, FieldSmokingStatus, FieldDuration},
	)
}

// NewSlotSchema builds a schema from ordered required scalar fields, the
// symptom group sub-fields, and optional scalar fields.
func NewSlotSchema(required, symptoms, optional []string) *SlotSchema {
	s := &SlotSchema{
		requiredScalars: append([]string(nil), required...),
		symptomGroup:    append([]string(nil), symptoms...),
		optionalScalars: append([]string(nil), optional...),
		scalarSet:       make(map[string]bool, len(required)+len(optional)),
		symptomSet:      make(map[string]bool, len(symptoms)),
	}
	for _, f := range required {
		s.scalarSet[f] = true
	}
	for _, f := range optional {
		s.scalarSet[f] = true
	}
	for _, f := range symptoms {
		s.symptomSet[f] = true
	}
	return s
}

// RequiredScalarFields returns the ordered required scalar field names.
func (s *SlotSchema) RequiredScalarFields() []string {
	return append([]string(nil), s.requiredScalars...)
}

// SymptomGroupFields returns the symptom group sub-field names.
func (s *SlotSchema) SymptomGroupFields() []string {
	return append([]string(nil), s.symptomGroup...)
}

// OptionalFields returns the optional scalar field names.
func (s *SlotSchema) OptionalFields() []string {
	return append([]string(nil), s.optionalScalars...)
}

// IsScalarField reports whether name is a known required or optional scalar.
func (s *SlotSchema) IsScalarField(name string) bool {
	return s.scalarSet[name]
}

// IsSymptomField reports whether name belongs to the symptom group.
func (s *SlotSchema) IsSymptomField(name string) bool {
	return s.symptomSet[name]
}

// MissingRequired lists required scalar fields that are still empty. When no
// symptom has been reported yet the symptom group is listed as "symptoms".
func (s *SlotSchema) MissingRequired(scalars, symptoms map[string]string) []string {
	var missing []string
	for _, f := range s.requiredScalars {
		if scalars[f] == "" {
			missing = append(missing, f)
		}
	}
	if !s.hasAnySymptom(symptoms) {
		missing = append(missing, "symptoms")
	}
	return missing
}

// IsStructurallyComplete reports whether every required scalar holds a
// non-empty value and at least one symptom sub-field is populated. Optional
// fields never participate.
func (s *SlotSchema) IsStructurallyComplete(scalars, symptoms map[string]string) bool {
	for _, f := range s.requiredScalars {
		if scalars[f] == "" {
			return false
		}
	}
	return s.hasAnySymptom(symptoms)
}

func (s *SlotSchema) hasAnySymptom(symptoms map[string]string) bool {
	for _, f := range s.symptomGroup {
		if symptoms[f] != "" {
			return true
		}
	}
	return false
}
