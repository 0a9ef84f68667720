package rate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resolver finds the single applicable pay rate for an employee on a date,
// optionally narrowed to a work scope. A nil Snapshot with a nil error
// means no rate exists; callers treat that as "cannot run payroll for this
// assignment yet", not as a failure.
//
//go:generate mockgen -source=rate_resolver.go -destination=mock/rate_resolver_mock.go -package=mock
type Resolver interface {
	Resolve(ctx context.Context, employeeID uuid.UUID, asOf time.Time, locationID, clientID *uuid.UUID) (*Snapshot, error)
}

type resolver struct {
	repo Repository
}

func NewResolver(repo Repository) Resolver {
	return &resolver{repo: repo}
}

// Resolve search order, first match wins:
//  1. scope-specific rate (location, else client) effective on asOf,
//     most recent effective date;
//  2. global rate effective on asOf, most recent effective date;
//  3. the same ordering over rows lacking an effective date, by record
//     creation time (legacy fallback).
func (r *resolver) Resolve(ctx context.Context, employeeID uuid.UUID, asOf time.Time, locationID, clientID *uuid.UUID) (*Snapshot, error) {
	type lookup struct {
		kind    scopeKind
		scopeID *uuid.UUID
	}

	var lookups []lookup
	if locationID != nil {
		lookups = append(lookups, lookup{scopeLocation, locationID})
	}
	if clientID != nil {
		lookups = append(lookups, lookup{scopeClient, clientID})
	}
	lookups = append(lookups, lookup{scopeGlobal, nil})

	for _, l := range lookups {
		row, err := r.repo.FindEffective(ctx, employeeID, asOf, l.kind, l.scopeID)
		if err != nil {
			return nil, err
		}
		if snapshot, ok := normalize(row); ok {
			return &snapshot, nil
		}
	}

	for _, l := range lookups {
		row, err := r.repo.FindLegacy(ctx, employeeID, l.kind, l.scopeID)
		if err != nil {
			return nil, err
		}
		if snapshot, ok := normalize(row); ok {
			return &snapshot, nil
		}
	}

	return nil, nil
}
