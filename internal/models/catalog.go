package models

// Level groups grades into an education stage (e.g. primary, secondary).
type Level struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Grade is a year-level in the academic ladder. Catalog data, read-only here.
type Grade struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	LevelID string `db:"level_id" json:"level_id"`
}

// GradeDetail enriches Grade with its level name.
type GradeDetail struct {
	Grade
	LevelName string `db:"level_name" json:"level_name"`
}

// Section subdivides a grade and carries a nominal seat capacity.
// A nil capacity means "use the configured default".
type Section struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	GradeID  string `db:"grade_id" json:"grade_id"`
	Capacity *int   `db:"capacity" json:"capacity,omitempty"`
}

// SchoolYear is an academic period. Exactly one is active at a time;
// that invariant is maintained by the admin tooling, not enforced here.
type SchoolYear struct {
	ID     string `db:"id" json:"id"`
	Period string `db:"period" json:"period"`
	Active bool   `db:"active" json:"active"`
}
