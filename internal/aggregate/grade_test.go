package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

func entries(values ...interface{}) []models.SubjectGradeEntry {
	out := make([]models.SubjectGradeEntry, len(values))
	for i, v := range values {
		out[i] = models.SubjectGradeEntry{SubjectID: int64(i + 1)}
		if f, ok := v.(float64); ok {
			out[i].Grade = null.Float64From(f)
		}
	}
	return out
}

func TestGradeCompletenessMonotonicity(t *testing.T) {
	policy := DefaultGradePolicy()
	set, err := policy.NewStudentGradeSet(1, "Ana", entries(80.0, nil, 90.0))
	require.NoError(t, err)
	assert.False(t, set.AllSubjectsFilled())
	assert.Equal(t, models.GradeStatusIncomplete, set.Status())
	assert.False(t, set.Average().Valid)

	filled, err := policy.WithGrade(set, 2, null.Float64From(70))
	require.NoError(t, err)
	assert.True(t, filled.AllSubjectsFilled())
	assert.InDelta(t, 80.0, filled.Average().Float64, 1e-9)
	assert.Equal(t, models.GradeStatusPassing, filled.Status())

	// the original value is untouched
	assert.Equal(t, models.GradeStatusIncomplete, set.Status())
}

func TestPassFailBoundary(t *testing.T) {
	policy := DefaultGradePolicy()
	failing := policy.Evaluate(entries(74.999, 74.999))
	assert.Equal(t, models.GradeStatusFailing, failing.Status)

	passing := policy.Evaluate(entries(75.0, 75.0, 75.0))
	assert.Equal(t, models.GradeStatusPassing, passing.Status)
}

func TestEvaluateEmptySetIsIncomplete(t *testing.T) {
	eval := DefaultGradePolicy().Evaluate(nil)
	assert.False(t, eval.AllSubjectsFilled)
	assert.Equal(t, models.GradeStatusIncomplete, eval.Status)
}

func TestNullGradeIsNotZero(t *testing.T) {
	eval := DefaultGradePolicy().Evaluate(entries(100.0, nil))
	assert.Equal(t, models.GradeStatusIncomplete, eval.Status)
	assert.False(t, eval.Average.Valid)
}

func TestNewStudentGradeSetRejectsMalformed(t *testing.T) {
	policy := DefaultGradePolicy()
	_, err := policy.NewStudentGradeSet(1, "", entries(120.0))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeValidation))

	dup := []models.SubjectGradeEntry{{SubjectID: 1}, {SubjectID: 1}}
	_, err = policy.NewStudentGradeSet(1, "", dup)
	require.Error(t, err)
}

func TestApplyUpdatesIsAllOrNothing(t *testing.T) {
	policy := DefaultGradePolicy()
	a, _ := policy.NewStudentGradeSet(1, "A", entries(nil, 80.0))
	b, _ := policy.NewStudentGradeSet(2, "B", entries(70.0, nil))
	sets := []StudentGradeSet{a, b}

	_, err := policy.ApplyUpdates(sets, []models.GradeUpdate{
		{StudentID: 1, SubjectID: 1, Grade: null.Float64From(90)},
		{StudentID: 99, SubjectID: 1, Grade: null.Float64From(90)},
	})
	require.Error(t, err)
	assert.Equal(t, models.GradeStatusIncomplete, sets[0].Status())

	next, err := policy.ApplyUpdates(sets, []models.GradeUpdate{
		{StudentID: 1, SubjectID: 1, Grade: null.Float64From(90)},
		{StudentID: 2, SubjectID: 2, Grade: null.Float64From(60)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusPassing, next[0].Status())
	assert.Equal(t, models.GradeStatusFailing, next[1].Status())
	assert.Equal(t, models.GradeStatusIncomplete, sets[1].Status())
}

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.False(t, g.Valid)

	g, err = ParseGrade(json.RawMessage(`88.5`))
	require.NoError(t, err)
	assert.Equal(t, 88.5, g.Float64)

	g, err = ParseGrade(json.RawMessage(`"91.00"`))
	require.NoError(t, err)
	assert.Equal(t, 91.0, g.Float64)

	for _, raw := range []string{`"A+"`, `true`, `""`, `101`, `-1`} {
		_, err := ParseGrade(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}

func TestHonorTable(t *testing.T) {
	assert.Equal(t, models.HonorNone, HonorFor(89.99))
	assert.Equal(t, models.HonorWith, HonorFor(90))
	assert.Equal(t, models.HonorWithHigh, HonorFor(95))
	assert.Equal(t, models.HonorWithHigh, HonorFor(97.99))
	assert.Equal(t, models.HonorWithHighest, HonorFor(98))
	assert.Equal(t, models.HonorWithHighest, HonorFor(100))
}

func TestHonorRequiresPassingSet(t *testing.T) {
	policy := DefaultGradePolicy()
	set, _ := policy.NewStudentGradeSet(1, "", entries(99.0, nil))
	assert.Equal(t, models.HonorNone, set.Honor())

	set, _ = policy.NewStudentGradeSet(1, "", entries(99.0, 97.0))
	assert.Equal(t, models.HonorWithHighest, set.Honor())
}

func TestSummarize(t *testing.T) {
	policy := DefaultGradePolicy()
	a, _ := policy.NewStudentGradeSet(1, "", entries(96.0, 94.0))
	b, _ := policy.NewStudentGradeSet(2, "", entries(60.0, 70.0))
	c, _ := policy.NewStudentGradeSet(3, "", entries(nil))
	summary := Summarize([]StudentGradeSet{a, b, c})
	assert.Equal(t, 3, summary.Students)
	assert.Equal(t, 1, summary.Passing)
	assert.Equal(t, 1, summary.Failing)
	assert.Equal(t, 1, summary.Incomplete)
	assert.Equal(t, 1, summary.Honors[models.HonorWithHigh])
	assert.Equal(t, 0, summary.Honors[models.HonorWithHighest])
	assert.InDelta(t, 80.0, summary.Average.Float64, 1e-9)
}

func TestStudentGradeSetJSON(t *testing.T) {
	set, _ := DefaultGradePolicy().NewStudentGradeSet(7, "Ben", entries(80.0, nil))
	raw, err := json.Marshal(set)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["all_subjects_filled"])
	assert.Equal(t, "Incomplete", decoded["status"])
	assert.Nil(t, decoded["average"])
}
