package intake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsStructurallyComplete(t *testing.T) {
	schema := DefaultSchema()

	t.Run("empty record is incomplete", func(t *testing.T) {
		require.False(t, schema.IsStructurallyComplete(map[string]string{}, map[string]string{}))
	})

	t.Run("required scalars without a symptom are incomplete", func(t *testing.T) {
		scalars := map[string]string{
			FieldAge:          "40",
			FieldGender:       "female",
			FieldAffectedArea: "lower left molar",
		}
		require.False(t, schema.IsStructurallyComplete(scalars, map[string]string{}))
	})

	t.Run("one symptom without all scalars is incomplete", func(t *testing.T) {
		scalars := map[string]string{FieldAge: "40"}
		symptoms := map[string]string{SymptomPain: "yes"}
		require.False(t, schema.IsStructurallyComplete(scalars, symptoms))
	})

	t.Run("all required scalars plus one symptom is complete", func(t *testing.T) {
		scalars := map[string]string{
			FieldAge:          "40",
			FieldGender:       "female",
			FieldAffectedArea: "lower left molar",
		}
		symptoms := map[string]string{SymptomPain: "severe"}
		require.True(t, schema.IsStructurallyComplete(scalars, symptoms))
	})

	t.Run("optional fields never participate", func(t *testing.T) {
		scalars := map[string]string{
			FieldAge:           "40",
			FieldGender:        "female",
			FieldAffectedArea:  "gums",
			FieldDentalHistory: "root canal 2019",
			FieldSmokingStatus: "no",
			FieldDuration:      "3 days",
		}
		require.False(t, schema.IsStructurallyComplete(scalars, map[string]string{}),
			"optional fields must not substitute for the symptom group")
	})

	t.Run("empty string values do not count", func(t *testing.T) {
		scalars := map[string]string{
			FieldAge:          "40",
			FieldGender:       "",
			FieldAffectedArea: "molar",
		}
		symptoms := map[string]string{SymptomSwelling: "yes"}
		require.False(t, schema.IsStructurallyComplete(scalars, symptoms))
	})
}

func TestMissingRequired(t *testing.T) {
	schema := DefaultSchema()

	missing := schema.MissingRequired(map[string]string{FieldAge: "40"}, map[string]string{})
	require.Equal(t, []string{FieldGender, FieldAffectedArea, "symptoms"}, missing)

	missing = schema.MissingRequired(
		map[string]string{FieldAge: "40", FieldGender: "male", FieldAffectedArea: "jaw"},
		map[string]string{SymptomBleeding: "yes"},
	)
	require.Empty(t, missing)
}

func TestSchemaAccessorsReturnCopies(t *testing.T) {
	schema := DefaultSchema()
	fields := schema.RequiredScalarFields()
	fields[0] = "mutated"
	require.Equal(t, FieldAge, schema.RequiredScalarFields()[0])
}

func TestFieldMembership(t *testing.T) {
	schema := DefaultSchema()
	require.True(t, schema.IsScalarField(FieldAge))
	require.True(t, schema.IsScalarField(FieldDuration))
	require.False(t, schema.IsScalarField("shoe_size"))
	require.True(t, schema.IsSymptomField(SymptomLooseness))
	require.False(t, schema.IsSymptomField("mood"))
}
