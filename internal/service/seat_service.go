package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/escolar-api/internal/models"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type seatRepository interface {
	Find(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) (*models.SeatCounter, error)
	Reserve(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string, defaultCapacity int) (bool, error)
	Release(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) error
	ListAvailability(ctx context.Context, exec sqlx.ExtContext, gradeID, schoolYearID string, defaultCapacity int) ([]models.SectionAvailability, error)
	SectionAvailability(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string, defaultCapacity int) (*models.SectionAvailability, error)
	ResizeCapacity(ctx context.Context, exec sqlx.ExtContext, sectionID string, capacity int) error
}

type sectionCatalog interface {
	FindSectionByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error)
}

// SeatService is the authoritative ledger of seat occupancy. All seat
// reservations and releases in the system go through it.
type SeatService struct {
	repo            seatRepository
	sections        sectionCatalog
	cache           *CacheService
	metrics         *MetricsService
	logger          *zap.Logger
	defaultCapacity int
}

// NewSeatService constructs SeatService.
func NewSeatService(repo seatRepository, sections sectionCatalog, cache *CacheService, metrics *MetricsService, logger *zap.Logger, defaultCapacity int) *SeatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 30
	}
	return &SeatService{repo: repo, sections: sections, cache: cache, metrics: metrics, logger: logger, defaultCapacity: defaultCapacity}
}

// FindOrInit returns the persisted counter for (section, school year) or an
// unpersisted zero-occupancy counter seeded from the section's nominal
// capacity. The counter row itself is only created by the first reservation.
func (s *SeatService) FindOrInit(ctx context.Context, sectionID, schoolYearID string) (*models.SeatCounter, error) {
	counter, err := s.repo.Find(ctx, nil, sectionID, schoolYearID)
	if err == nil {
		return counter, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seat counter")
	}
	section, err := s.sections.FindSectionByID(ctx, nil, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	capacity := s.defaultCapacity
	if section.Capacity != nil && *section.Capacity > 0 {
		capacity = *section.Capacity
	}
	return &models.SeatCounter{
		SectionID:    sectionID,
		SchoolYearID: schoolYearID,
		Capacity:     capacity,
		Occupied:     0,
		Available:    capacity,
	}, nil
}

// Reserve takes one seat in the section for the school year, inside the
// caller's transaction when exec is a *sqlx.Tx. A full section surfaces as
// SEAT_UNAVAILABLE; callers must not retry, capacity does not change by
// retrying.
func (s *SeatService) Reserve(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) error {
	ok, err := s.repo.Reserve(ctx, exec, sectionID, schoolYearID, s.defaultCapacity)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.RecordSeatReservation("rejected")
		}
		return appErrors.Clone(appErrors.ErrSeatUnavailable, "no seats available in section")
	}
	if s.metrics != nil {
		s.metrics.RecordSeatReservation("reserved")
	}
	return nil
}

// Release returns one seat. Idempotent against over-release.
func (s *SeatService) Release(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) error {
	if err := s.repo.Release(ctx, exec, sectionID, schoolYearID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
	}
	if s.metrics != nil {
		s.metrics.RecordSeatReservation("released")
	}
	return nil
}

// Resize reconciles persisted counters with a new nominal capacity for the
// section. Availability floors at zero when shrinking below occupancy.
func (s *SeatService) Resize(ctx context.Context, exec sqlx.ExtContext, sectionID string, capacity int) error {
	if err := s.repo.ResizeCapacity(ctx, exec, sectionID, capacity); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resize seat counters")
	}
	return nil
}

// ResolveSection picks the destination section for a placement in a grade.
// An explicit section must belong to the grade and have a free seat. Without
// one, the grade's sections are scanned in ascending ID order and the first
// with availability wins. A grade without sections is a configuration error
// and is reported distinctly from capacity exhaustion.
func (s *SeatService) ResolveSection(ctx context.Context, exec sqlx.ExtContext, gradeID, schoolYearID, explicitSectionID string) (*models.SectionAvailability, error) {
	if explicitSectionID != "" {
		section, err := s.sections.FindSectionByID(ctx, exec, explicitSectionID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "destination section not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load destination section")
		}
		if section.GradeID != gradeID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section does not belong to destination grade")
		}
		availability, err := s.repo.SectionAvailability(ctx, exec, explicitSectionID, schoolYearID, s.defaultCapacity)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section availability")
		}
		if availability.Available <= 0 {
			return nil, appErrors.Clone(appErrors.ErrSeatUnavailable, "no seats available in requested section")
		}
		return availability, nil
	}

	sections, err := s.repo.ListAvailability(ctx, exec, gradeID, schoolYearID, s.defaultCapacity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section availability")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSections, "grade has no sections configured")
	}
	for i := range sections {
		if sections[i].Available > 0 {
			return &sections[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrSeatUnavailable, "all sections of the grade are full")
}

// GradeAvailability summarises per-section availability for a grade, served
// from cache when enabled.
func (s *SeatService) GradeAvailability(ctx context.Context, gradeID, schoolYearID string) (*models.GradeAvailability, error) {
	key := availabilityCacheKey(gradeID, schoolYearID)
	var cached models.GradeAvailability
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	sections, err := s.repo.ListAvailability(ctx, nil, gradeID, schoolYearID, s.defaultCapacity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section availability")
	}
	summary := &models.GradeAvailability{
		GradeID:      gradeID,
		SchoolYearID: schoolYearID,
		Sections:     sections,
		GeneratedAt:  time.Now().UTC(),
	}
	_ = s.cache.Set(ctx, key, summary, 0)
	return summary, nil
}

// InvalidateAvailability drops cached availability for the given grades.
// Called after a workflow touching seat counters commits.
func (s *SeatService) InvalidateAvailability(ctx context.Context, gradeIDs ...string) {
	for _, gradeID := range gradeIDs {
		if gradeID == "" {
			continue
		}
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("availability:grade:%s:*", gradeID)); err != nil {
			s.logger.Warn("availability cache invalidation failed", zap.String("grade_id", gradeID), zap.Error(err))
		}
	}
}

func availabilityCacheKey(gradeID, schoolYearID string) string {
	return fmt.Sprintf("availability:grade:%s:year:%s", gradeID, schoolYearID)
}
