package models

import "time"

// GradeAssignment records a student's active grade for a school year.
// At most one row may exist per (student, school year); grade changes are
// modeled as delete-and-recreate, never as in-place updates.
type GradeAssignment struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	GradeID       string     `db:"grade_id" json:"grade_id"`
	SchoolYearID  string     `db:"school_year_id" json:"school_year_id"`
	AssignedAt    time.Time  `db:"assigned_at" json:"assigned_at"`
	TransferredAt *time.Time `db:"transferred_at" json:"transferred_at,omitempty"`
}

// SectionAssignment mirrors GradeAssignment at section granularity.
type SectionAssignment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	SchoolYearID string    `db:"school_year_id" json:"school_year_id"`
	AssignedAt   time.Time `db:"assigned_at" json:"assigned_at"`
}

// Placement is a student's resolved (grade, section) for a school year.
type Placement struct {
	GradeID   string `db:"grade_id" json:"grade_id"`
	SectionID string `db:"section_id" json:"section_id"`
}
