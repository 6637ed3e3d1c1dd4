package aggregate

import (
	"sort"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// TextbookSummary is the section roll-up of textbook issues.
type TextbookSummary struct {
	Students []models.TextbookTally `json:"students"`
	Totals   models.TextbookTally   `json:"totals"`
}

// TallyTextbooks counts issued, returned, outstanding, damaged and lost books
// per student. A lost book is never counted as returned or outstanding.
func TallyTextbooks(issues []models.TextbookIssue) TextbookSummary {
	byStudent := map[int64]*models.TextbookTally{}
	for _, issue := range issues {
		t, ok := byStudent[issue.StudentID]
		if !ok {
			t = &models.TextbookTally{StudentID: issue.StudentID, StudentName: issue.StudentName}
			byStudent[issue.StudentID] = t
		}
		t.Issued++
		switch {
		case issue.Condition == models.TextbookLost:
			t.Lost++
		case issue.ReturnedAt != nil:
			t.Returned++
			if issue.Condition == models.TextbookDamaged {
				t.Damaged++
			}
		default:
			t.Outstanding++
		}
	}
	summary := TextbookSummary{Students: make([]models.TextbookTally, 0, len(byStudent))}
	for _, t := range byStudent {
		summary.Students = append(summary.Students, *t)
		summary.Totals.Issued += t.Issued
		summary.Totals.Returned += t.Returned
		summary.Totals.Outstanding += t.Outstanding
		summary.Totals.Damaged += t.Damaged
		summary.Totals.Lost += t.Lost
	}
	sort.Slice(summary.Students, func(i, j int) bool { return summary.Students[i].StudentID < summary.Students[j].StudentID })
	return summary
}
