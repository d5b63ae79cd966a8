package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusRejected  EnrollmentStatus = "REJECTED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
	EnrollmentStatusGraduated EnrollmentStatus = "GRADUATED"
	EnrollmentStatusApproved  EnrollmentStatus = "APPROVED"
)

var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusPending:  {EnrollmentStatusEnrolled, EnrollmentStatusRejected},
	EnrollmentStatusEnrolled: {EnrollmentStatusWithdrawn, EnrollmentStatusGraduated, EnrollmentStatusApproved},
}

// CanTransition reports whether status may move to next.
func (s EnrollmentStatus) CanTransition(next EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Enrollment is the durable record of a student's admission for a school
// year. Grade and section fields are a snapshot kept in sync by transfers;
// the assignment join rows remain the current-state source of truth.
type Enrollment struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	GuardianID      string           `db:"guardian_id" json:"guardian_id"`
	GradeID         string           `db:"grade_id" json:"grade_id"`
	SectionID       string           `db:"section_id" json:"section_id"`
	SchoolYearID    string           `db:"school_year_id" json:"school_year_id"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	Fee             float64          `db:"fee" json:"fee"`
	PaymentComplete bool             `db:"payment_complete" json:"payment_complete"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with contextual names.
type EnrollmentDetail struct {
	Enrollment
	StudentName       string `db:"student_name" json:"student_name"`
	StudentNationalID string `db:"student_national_id" json:"student_national_id"`
	GuardianName      string `db:"guardian_name" json:"guardian_name"`
	GradeName         string `db:"grade_name" json:"grade_name"`
	SectionName       string `db:"section_name" json:"section_name"`
	SchoolYearPeriod  string `db:"school_year_period" json:"school_year_period"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	GradeID      string
	SectionID    string
	SchoolYearID string
	Status       EnrollmentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
