package job

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=job_repo.go -destination=mock/job_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)
	ListByServiceDateRange(ctx context.Context, from, to time.Time) ([]Job, error)
	Assignments(ctx context.Context, j *Job) ([]Assignment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListByServiceDateRange returns jobs with a service date in the half-open
// range [from, to), any status; callers filter on completion themselves.
func (r *repository) ListByServiceDateRange(ctx context.Context, from, to time.Time) ([]Job, error) {
	var jobs []Job
	err := r.db.WithContext(ctx).
		Where("service_date >= ? AND service_date < ?", from, to).
		Order("service_date ASC").
		Find(&jobs).Error
	return jobs, err
}

func (r *repository) Assignments(ctx context.Context, j *Job) ([]Assignment, error) {
	var rows []jobEmployee
	err := r.db.WithContext(ctx).
		Where("job_id = ?", j.ID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, len(rows))
	for i, row := range rows {
		assignments[i] = Assignment{
			EmployeeID:      row.EmployeeID,
			JobID:           j.ID,
			ServiceDate:     j.ServiceDate,
			LocationID:      j.LocationID,
			ClientID:        j.ClientID,
			DurationMinutes: j.DurationMinutes,
		}
	}
	return assignments, nil
}
