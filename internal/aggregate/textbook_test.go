package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

func TestTallyTextbooks(t *testing.T) {
	returned := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := TallyTextbooks([]models.TextbookIssue{
		{StudentID: 2, TextbookID: 1},
		{StudentID: 1, TextbookID: 1, ReturnedAt: &returned, Condition: models.TextbookGood},
		{StudentID: 1, TextbookID: 2, ReturnedAt: &returned, Condition: models.TextbookDamaged},
		{StudentID: 1, TextbookID: 3, Condition: models.TextbookLost},
	})
	require.Len(t, summary.Students, 2)
	first := summary.Students[0]
	assert.Equal(t, int64(1), first.StudentID)
	assert.Equal(t, 3, first.Issued)
	assert.Equal(t, 2, first.Returned)
	assert.Equal(t, 1, first.Damaged)
	assert.Equal(t, 1, first.Lost)
	assert.Equal(t, 0, first.Outstanding)
	assert.Equal(t, 1, summary.Totals.Outstanding)
	assert.Equal(t, 4, summary.Totals.Issued)
}
