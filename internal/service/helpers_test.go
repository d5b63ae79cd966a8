package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campusops/escolar-api/internal/models"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// memCatalog is an in-memory grade/section/school-year catalog.
type memCatalog struct {
	grades   map[string]*models.Grade
	sections map[string]*models.Section
	years    map[string]*models.SchoolYear
}

func newMemCatalog() *memCatalog {
	return &memCatalog{grades: map[string]*models.Grade{}, sections: map[string]*models.Section{}, years: map[string]*models.SchoolYear{}}
}

func (c *memCatalog) addGrade(id string) {
	c.grades[id] = &models.Grade{ID: id, Name: "Grade " + id, LevelID: "lvl-1"}
}

func (c *memCatalog) addYear(id string) {
	c.years[id] = &models.SchoolYear{ID: id, Period: "Period " + id, Active: true}
}

func (c *memCatalog) addSection(id, gradeID string, capacity int) {
	section := &models.Section{ID: id, Name: "Section " + id, GradeID: gradeID}
	if capacity > 0 {
		section.Capacity = &capacity
	}
	c.sections[id] = section
}

func (c *memCatalog) FindGradeByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Grade, error) {
	grade, ok := c.grades[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return grade, nil
}

func (c *memCatalog) FindSectionByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error) {
	section, ok := c.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return section, nil
}

func (c *memCatalog) FindSchoolYearByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.SchoolYear, error) {
	year, ok := c.years[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return year, nil
}

// memSeatRepo mirrors the conditional-upsert semantics of the ledger over an
// in-memory map. The mutex makes Reserve atomic the way the single SQL
// statement is.
type memSeatRepo struct {
	mu       sync.Mutex
	catalog  *memCatalog
	counters map[string]*models.SeatCounter
}

func newMemSeatRepo(catalog *memCatalog) *memSeatRepo {
	return &memSeatRepo{catalog: catalog, counters: map[string]*models.SeatCounter{}}
}

func seatKey(sectionID, schoolYearID string) string {
	return sectionID + "|" + schoolYearID
}

func (r *memSeatRepo) capacityOf(sectionID string, defaultCapacity int) (int, bool) {
	section, ok := r.catalog.sections[sectionID]
	if !ok {
		return 0, false
	}
	if section.Capacity != nil && *section.Capacity > 0 {
		return *section.Capacity, true
	}
	return defaultCapacity, true
}

func (r *memSeatRepo) Find(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) (*models.SeatCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counter, ok := r.counters[seatKey(sectionID, schoolYearID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *counter
	return &copied, nil
}

func (r *memSeatRepo) Reserve(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string, defaultCapacity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capacity, ok := r.capacityOf(sectionID, defaultCapacity)
	if !ok {
		return false, nil
	}
	key := seatKey(sectionID, schoolYearID)
	counter, exists := r.counters[key]
	if !exists {
		counter = &models.SeatCounter{SectionID: sectionID, SchoolYearID: schoolYearID, Capacity: capacity, Occupied: 0, Available: capacity}
		r.counters[key] = counter
	}
	if counter.Available <= 0 {
		return false, nil
	}
	counter.Occupied++
	counter.Available--
	return true, nil
}

func (r *memSeatRepo) Release(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	counter, ok := r.counters[seatKey(sectionID, schoolYearID)]
	if !ok {
		return nil
	}
	if counter.Occupied > 0 {
		counter.Occupied--
	}
	counter.Available = counter.Capacity - counter.Occupied
	return nil
}

func (r *memSeatRepo) ListAvailability(ctx context.Context, exec sqlx.ExtContext, gradeID, schoolYearID string, defaultCapacity int) ([]models.SectionAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.SectionAvailability
	for id, section := range r.catalog.sections {
		if section.GradeID != gradeID {
			continue
		}
		capacity, _ := r.capacityOf(id, defaultCapacity)
		availability := models.SectionAvailability{SectionID: id, SectionName: section.Name, Capacity: capacity, Occupied: 0, Available: capacity}
		if counter, ok := r.counters[seatKey(id, schoolYearID)]; ok {
			availability.Capacity = counter.Capacity
			availability.Occupied = counter.Occupied
			availability.Available = counter.Available
		}
		result = append(result, availability)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SectionID < result[j].SectionID })
	return result, nil
}

func (r *memSeatRepo) SectionAvailability(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string, defaultCapacity int) (*models.SectionAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	section, ok := r.catalog.sections[sectionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	capacity, _ := r.capacityOf(sectionID, defaultCapacity)
	availability := &models.SectionAvailability{SectionID: sectionID, SectionName: section.Name, Capacity: capacity, Occupied: 0, Available: capacity}
	if counter, exists := r.counters[seatKey(sectionID, schoolYearID)]; exists {
		availability.Capacity = counter.Capacity
		availability.Occupied = counter.Occupied
		availability.Available = counter.Available
	}
	return availability, nil
}

func (r *memSeatRepo) ResizeCapacity(ctx context.Context, exec sqlx.ExtContext, sectionID string, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, counter := range r.counters {
		if counter.SectionID != sectionID {
			continue
		}
		counter.Capacity = capacity
		counter.Available = capacity - counter.Occupied
		if counter.Available < 0 {
			counter.Available = 0
		}
	}
	return nil
}

func (r *memSeatRepo) occupied(sectionID, schoolYearID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counter, ok := r.counters[seatKey(sectionID, schoolYearID)]
	if !ok {
		return 0
	}
	return counter.Occupied
}

// memAssignments keeps the grade/section assignment rows keyed by
// (student, school year).
type memAssignments struct {
	gradeRows   map[string]*models.GradeAssignment
	sectionRows map[string]*models.SectionAssignment
	nextID      int
}

func newMemAssignments() *memAssignments {
	return &memAssignments{gradeRows: map[string]*models.GradeAssignment{}, sectionRows: map[string]*models.SectionAssignment{}}
}

func assignKey(studentID, schoolYearID string) string {
	return studentID + "|" + schoolYearID
}

func (a *memAssignments) FindGradeAssignment(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.GradeAssignment, error) {
	row, ok := a.gradeRows[assignKey(studentID, schoolYearID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (a *memAssignments) FindSectionAssignment(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.SectionAssignment, error) {
	row, ok := a.sectionRows[assignKey(studentID, schoolYearID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (a *memAssignments) CreateGradeAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.GradeAssignment) error {
	key := assignKey(assignment.StudentID, assignment.SchoolYearID)
	if _, exists := a.gradeRows[key]; exists {
		return fmt.Errorf("duplicate grade assignment for %s", key)
	}
	if assignment.ID == "" {
		a.nextID++
		assignment.ID = fmt.Sprintf("ga-%d", a.nextID)
	}
	copied := *assignment
	a.gradeRows[key] = &copied
	return nil
}

func (a *memAssignments) CreateSectionAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.SectionAssignment) error {
	key := assignKey(assignment.StudentID, assignment.SchoolYearID)
	if _, exists := a.sectionRows[key]; exists {
		return fmt.Errorf("duplicate section assignment for %s", key)
	}
	if assignment.ID == "" {
		a.nextID++
		assignment.ID = fmt.Sprintf("sa-%d", a.nextID)
	}
	copied := *assignment
	a.sectionRows[key] = &copied
	return nil
}

func (a *memAssignments) DeleteGradeAssignment(ctx context.Context, exec sqlx.ExtContext, id string) error {
	for key, row := range a.gradeRows {
		if row.ID == id {
			delete(a.gradeRows, key)
			return nil
		}
	}
	return nil
}

func (a *memAssignments) DeleteSectionAssignment(ctx context.Context, exec sqlx.ExtContext, id string) error {
	for key, row := range a.sectionRows {
		if row.ID == id {
			delete(a.sectionRows, key)
			return nil
		}
	}
	return nil
}

func (a *memAssignments) CurrentPlacement(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.Placement, error) {
	grade, ok := a.gradeRows[assignKey(studentID, schoolYearID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	placement := &models.Placement{GradeID: grade.GradeID}
	if section, exists := a.sectionRows[assignKey(studentID, schoolYearID)]; exists {
		placement.SectionID = section.SectionID
	}
	return placement, nil
}

// memPersons is an in-memory person store.
type memPersons struct {
	people map[string]*models.Person
	nextID int
}

func newMemPersons() *memPersons {
	return &memPersons{people: map[string]*models.Person{}}
}

func (p *memPersons) add(person models.Person) {
	p.people[person.ID] = &person
}

func (p *memPersons) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var students []models.StudentDetail
	for _, person := range p.people {
		if person.Category != models.CategoryStudent {
			continue
		}
		students = append(students, models.StudentDetail{Person: *person})
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, len(students), nil
}

func (p *memPersons) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Person, error) {
	person, ok := p.people[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *person
	return &copied, nil
}

func (p *memPersons) FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (*models.Person, error) {
	for _, person := range p.people {
		if person.NationalID == nationalID && person.Category == category {
			copied := *person
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (p *memPersons) ExistsByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (bool, error) {
	_, err := p.FindByNationalID(ctx, exec, nationalID, category)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *memPersons) Create(ctx context.Context, exec sqlx.ExtContext, person *models.Person) error {
	if person.ID == "" {
		p.nextID++
		person.ID = fmt.Sprintf("person-%d", p.nextID)
	}
	copied := *person
	p.people[person.ID] = &copied
	return nil
}

// memEnrollments is an in-memory enrollment store.
type memEnrollments struct {
	rows   map[string]*models.Enrollment
	nextID int
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{rows: map[string]*models.Enrollment{}}
}

func (e *memEnrollments) add(enrollment models.Enrollment) {
	e.rows[enrollment.ID] = &enrollment
}

func (e *memEnrollments) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var details []models.EnrollmentDetail
	for _, row := range e.rows {
		if filter.StudentID != "" && row.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		details = append(details, models.EnrollmentDetail{Enrollment: *row})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].ID < details[j].ID })
	return details, len(details), nil
}

func (e *memEnrollments) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	row, ok := e.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (e *memEnrollments) FindByStudentAndYear(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.Enrollment, error) {
	for _, row := range e.rows {
		if row.StudentID == studentID && row.SchoolYearID == schoolYearID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (e *memEnrollments) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		e.nextID++
		enrollment.ID = fmt.Sprintf("enr-%d", e.nextID)
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	copied := *enrollment
	e.rows[enrollment.ID] = &copied
	return nil
}

func (e *memEnrollments) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id, gradeID, sectionID string) error {
	row, ok := e.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.GradeID = gradeID
	row.SectionID = sectionID
	return nil
}

func (e *memEnrollments) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus) error {
	row, ok := e.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.Status = status
	return nil
}

func (e *memEnrollments) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	delete(e.rows, id)
	return nil
}

// memPayments is an in-memory payment store.
type memPayments struct {
	rows   []models.Payment
	nextID int
}

func newMemPayments() *memPayments {
	return &memPayments{}
}

func (p *memPayments) Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error {
	if payment.ID == "" {
		p.nextID++
		payment.ID = fmt.Sprintf("pay-%d", p.nextID)
	}
	p.rows = append(p.rows, *payment)
	return nil
}

func (p *memPayments) CountByEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollmentID string) (int, error) {
	count := 0
	for _, row := range p.rows {
		if row.EnrollmentID == enrollmentID {
			count++
		}
	}
	return count, nil
}

func (p *memPayments) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	var payments []models.Payment
	for _, row := range p.rows {
		if row.EnrollmentID == enrollmentID {
			payments = append(payments, row)
		}
	}
	return payments, nil
}

// memTransferLogs is an in-memory transfer audit log.
type memTransferLogs struct {
	rows   []models.TransferLog
	nextID int
}

func newMemTransferLogs() *memTransferLogs {
	return &memTransferLogs{}
}

func (l *memTransferLogs) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TransferLog) error {
	if entry.ID == "" {
		l.nextID++
		entry.ID = fmt.Sprintf("log-%d", l.nextID)
	}
	l.rows = append(l.rows, *entry)
	return nil
}

func (l *memTransferLogs) List(ctx context.Context, filter models.TransferLogFilter) ([]models.TransferLog, error) {
	var logs []models.TransferLog
	for _, row := range l.rows {
		if filter.StudentID != "" && row.StudentID != filter.StudentID {
			continue
		}
		if filter.SchoolYearID != "" && row.SchoolYearID != filter.SchoolYearID {
			continue
		}
		logs = append(logs, row)
	}
	return logs, nil
}
