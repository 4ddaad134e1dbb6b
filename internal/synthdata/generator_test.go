package synthdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Deterministic(t *testing.T) {
	first, firstNotes := NewGenerator(42).Generate(20)
	second, secondNotes := NewGenerator(42).Generate(20)

	require.Len(t, first, 20)
	require.Len(t, firstNotes, 20)
	assert.Equal(t, first, second)
	assert.Equal(t, firstNotes, secondNotes)
}

func TestGenerator_SeedChangesOutput(t *testing.T) {
	first, _ := NewGenerator(1).Generate(20)
	second, _ := NewGenerator(2).Generate(20)

	assert.NotEqual(t, first, second)
}

func TestGenerator_PatientShape(t *testing.T) {
	patients, notes := NewGenerator(7).Generate(50)

	for i, p := range patients {
		assert.Regexp(t, `^P\d{4}$`, p.ID)
		assert.Equal(t, p.ID, notes[i].PatientID)
		assert.NotEmpty(t, notes[i].Note)

		if p.AgeYears != nil {
			assert.GreaterOrEqual(t, *p.AgeYears, 18)
			assert.LessOrEqual(t, *p.AgeYears, 85)
		}
		if p.HbA1cPercent != nil {
			assert.GreaterOrEqual(t, *p.HbA1cPercent, 5.8)
			assert.LessOrEqual(t, *p.HbA1cPercent, 12.5)
		}
		if p.EGFR != nil {
			assert.GreaterOrEqual(t, *p.EGFR, 15.0)
			assert.LessOrEqual(t, *p.EGFR, 120.0)
		}
		if p.Pregnant != nil && *p.Pregnant && p.Sex != nil {
			assert.Equal(t, "female", string(*p.Sex))
		}
	}
}
