// Package directory exposes the one fact the payroll engine needs from the
// employee roster: whether an employee holds the owner role. Owners are
// deliberately excluded from automated payroll.
package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const roleOwner = "owner"

//go:generate mockgen -source=directory.go -destination=mock/directory_mock.go -package=mock
type Directory interface {
	IsOwner(ctx context.Context, employeeID uuid.UUID) (bool, error)
}

type employeeRow struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role string    `gorm:"column:role"`
}

func (employeeRow) TableName() string {
	return "employees"
}

type gormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) IsOwner(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	var row employeeRow
	err := d.db.WithContext(ctx).First(&row, "id = ?", employeeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Unknown employees are not owners; the rate resolver will flag
		// them as missing-rate instead.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.Role == roleOwner, nil
}

// Cache memoizes owner lookups for the lifetime of one batch run. It is an
// explicit, passed-in object rather than a process-wide singleton so tests
// can inject deterministic fixtures. Concurrent lookups for the same
// employee collapse into a single query.
type Cache struct {
	dir   Directory
	group singleflight.Group

	mu   sync.Mutex
	seen map[uuid.UUID]bool
}

func NewCache(dir Directory) *Cache {
	return &Cache{
		dir:  dir,
		seen: make(map[uuid.UUID]bool),
	}
}

func (c *Cache) IsOwner(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	c.mu.Lock()
	if v, ok := c.seen[employeeID]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(employeeID.String(), func() (any, error) {
		isOwner, err := c.dir.IsOwner(ctx, employeeID)
		if err != nil {
			return false, err
		}
		c.mu.Lock()
		c.seen[employeeID] = isOwner
		c.mu.Unlock()
		return isOwner, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
