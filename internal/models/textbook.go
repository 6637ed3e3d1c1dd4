package models

import "time"

// TextbookCondition describes the state a textbook was returned in.
type TextbookCondition string

const (
	TextbookGood    TextbookCondition = "good"
	TextbookDamaged TextbookCondition = "damaged"
	TextbookLost    TextbookCondition = "lost"
)

// TextbookIssue records a textbook lent to a student.
type TextbookIssue struct {
	StudentID   int64             `json:"student_id"`
	StudentName string            `json:"student_name"`
	TextbookID  int64             `json:"textbook_id"`
	Title       string            `json:"title"`
	IssuedAt    *time.Time        `json:"issued_at,omitempty"`
	ReturnedAt  *time.Time        `json:"returned_at,omitempty"`
	Condition   TextbookCondition `json:"condition,omitempty"`
}

// TextbookTally is the per-student textbook roll-up.
type TextbookTally struct {
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	Issued      int    `json:"issued"`
	Returned    int    `json:"returned"`
	Outstanding int    `json:"outstanding"`
	Damaged     int    `json:"damaged"`
	Lost        int    `json:"lost"`
}
