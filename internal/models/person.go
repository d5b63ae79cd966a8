package models

import "time"

// PersonCategory distinguishes the two identity kinds sharing the persons table.
type PersonCategory string

// Person categories.
const (
	CategoryStudent  PersonCategory = "STUDENT"
	CategoryGuardian PersonCategory = "GUARDIAN"
)

// Person represents a student or a guardian registered in the institution.
// National IDs are unique within a category.
type Person struct {
	ID         string         `db:"id" json:"id"`
	NationalID string         `db:"national_id" json:"national_id"`
	FullName   string         `db:"full_name" json:"full_name"`
	BirthDate  time.Time      `db:"birth_date" json:"birth_date"`
	Category   PersonCategory `db:"category" json:"category"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	GradeID      string
	SchoolYearID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// StudentDetail contains student information with current placement context.
type StudentDetail struct {
	Person
	CurrentGradeID     *string `db:"current_grade_id" json:"current_grade_id,omitempty"`
	CurrentGradeName   *string `db:"current_grade_name" json:"current_grade_name,omitempty"`
	CurrentSectionID   *string `db:"current_section_id" json:"current_section_id,omitempty"`
	CurrentSectionName *string `db:"current_section_name" json:"current_section_name,omitempty"`
}
