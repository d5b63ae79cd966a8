package models

import "time"

// TransferLog is the audit row written for every completed transfer.
type TransferLog struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SchoolYearID  string    `db:"school_year_id" json:"school_year_id"`
	FromGradeID   string    `db:"from_grade_id" json:"from_grade_id"`
	FromSectionID *string   `db:"from_section_id" json:"from_section_id,omitempty"`
	ToGradeID     string    `db:"to_grade_id" json:"to_grade_id"`
	ToSectionID   string    `db:"to_section_id" json:"to_section_id"`
	MovedAt       time.Time `db:"moved_at" json:"moved_at"`
	Note          string    `db:"note" json:"note"`
}

// TransferLogFilter narrows transfer log listings.
type TransferLogFilter struct {
	StudentID    string
	SchoolYearID string
	Limit        int
	Offset       int
}

// TransferReceipt reports the outcome of a single-student transfer.
type TransferReceipt struct {
	GradeAssignmentID string  `json:"grade_assignment_id"`
	SectionID         string  `json:"section_id"`
	EnrollmentID      *string `json:"enrollment_id,omitempty"`
}

// BulkTransferSuccess reports one transferred student and its section.
type BulkTransferSuccess struct {
	StudentID string `json:"student_id"`
	SectionID string `json:"section_id"`
}

// BulkTransferFailure reports one skipped student and the reason.
type BulkTransferFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// BulkTransferResult aggregates a best-effort batch transfer.
type BulkTransferResult struct {
	Transferred  []BulkTransferSuccess `json:"transferred"`
	Failures     []BulkTransferFailure `json:"failures"`
	SuccessCount int                   `json:"success_count"`
}
