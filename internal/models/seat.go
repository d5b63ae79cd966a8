package models

import "time"

// SeatCounter is the authoritative occupancy ledger for one (section, school
// year). Invariant after every mutation: 0 <= occupied <= capacity and
// available == capacity - occupied. Rows are created lazily on first reserve.
type SeatCounter struct {
	ID           string `db:"id" json:"id"`
	SectionID    string `db:"section_id" json:"section_id"`
	SchoolYearID string `db:"school_year_id" json:"school_year_id"`
	Capacity     int    `db:"capacity" json:"capacity"`
	Occupied     int    `db:"occupied" json:"occupied"`
	Available    int    `db:"available" json:"available"`
}

// SectionAvailability is the effective availability of one section, counter
// row or not: sections without a counter report their nominal capacity.
type SectionAvailability struct {
	SectionID   string `db:"section_id" json:"section_id"`
	SectionName string `db:"section_name" json:"section_name"`
	Capacity    int    `db:"capacity" json:"capacity"`
	Occupied    int    `db:"occupied" json:"occupied"`
	Available   int    `db:"available" json:"available"`
}

// GradeAvailability summarises seat availability across a grade's sections.
type GradeAvailability struct {
	GradeID      string                `json:"grade_id"`
	SchoolYearID string                `json:"school_year_id"`
	Sections     []SectionAvailability `json:"sections"`
	GeneratedAt  time.Time             `json:"generated_at"`
}
