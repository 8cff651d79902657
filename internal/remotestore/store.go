// Package remotestore is the adapter for the authoritative backend.
// The reconciler consumes the Store interface; the Postgres
// implementation holds the durable copy of record once a review has
// synced at least once.
package remotestore

import (
	"context"
	"errors"
	"time"

	"github.com/apexestimating/fieldcheck/internal/checklist"
)

var (
	ErrNotConfigured = errors.New("remote store not configured")
	ErrInvalidInput  = errors.New("invalid input")
)

// Store is the merge/replace protocol the reconciler speaks. Load
// calls return (nil, nil) when no aggregate exists or ownership does
// not match; absence is a normal result, not an error.
type Store interface {
	// LoadLatest fetches the caller's most recently updated review and
	// reconstitutes it against the canonical template.
	LoadLatest(ctx context.Context, ownerID string) (*checklist.Checklist, error)
	// LoadByID is LoadLatest scoped by explicit identifier.
	LoadByID(ctx context.Context, id, ownerID string) (*checklist.Checklist, error)
	// Upsert persists scalar fields (insert or ownership-scoped
	// update) and then fully replaces the review's item and log rows
	// with the given snapshot. Returns the review's identifier so the
	// caller can bind future updates to the same record.
	Upsert(ctx context.Context, data *checklist.Checklist, ownerID string) (string, error)
	// Remove deletes a review and, by cascade, its items and logs.
	Remove(ctx context.Context, id, ownerID string) error
	// ListSummaries returns per-review counts grouped by location for
	// the review dashboard, newest first.
	ListSummaries(ctx context.Context, ownerID string) ([]LocationGroup, error)
	// Ping is the lightweight reachability probe the sync scheduler
	// runs before attempting an upsert.
	Ping(ctx context.Context) error
	Close() error
}

type Summary struct {
	ID             string     `json:"id"`
	Client         string     `json:"client,omitempty"`
	LocationNumber string     `json:"locationNumber,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	TotalItems     int        `json:"totalItems"`
	CompletedItems int        `json:"completedItems"`
	FailedItems    int        `json:"failedItems"`
}

type LocationGroup struct {
	LocationNumber string    `json:"locationNumber"`
	Client         string    `json:"client,omitempty"`
	Checklists     []Summary `json:"checklists"`
}

// GroupByLocation buckets summaries (already newest-first) by location
// number, labelling reviews without one, and orders groups by their
// most recent review.
func GroupByLocation(summaries []Summary) []LocationGroup {
	index := map[string]int{}
	var groups []LocationGroup
	for _, s := range summaries {
		location := s.LocationNumber
		if location == "" {
			location = "No Location"
		}
		i, ok := index[location]
		if !ok {
			i = len(groups)
			index[location] = i
			groups = append(groups, LocationGroup{
				LocationNumber: location,
				Client:         s.Client,
			})
		}
		groups[i].Checklists = append(groups[i].Checklists, s)
	}
	return groups
}

// NullStore is the Store for deployments without a backend. Loads
// report absence and writes fail with ErrNotConfigured, which the sync
// scheduler surfaces as a persistent error status with explanatory
// text while local mutations and caching continue.
type NullStore struct{}

func NewNullStore() NullStore { return NullStore{} }

func (NullStore) LoadLatest(ctx context.Context, ownerID string) (*checklist.Checklist, error) {
	return nil, nil
}

func (NullStore) LoadByID(ctx context.Context, id, ownerID string) (*checklist.Checklist, error) {
	return nil, nil
}

func (NullStore) Upsert(ctx context.Context, data *checklist.Checklist, ownerID string) (string, error) {
	return "", ErrNotConfigured
}

func (NullStore) Remove(ctx context.Context, id, ownerID string) error {
	return ErrNotConfigured
}

func (NullStore) ListSummaries(ctx context.Context, ownerID string) ([]LocationGroup, error) {
	return nil, ErrNotConfigured
}

func (NullStore) Ping(ctx context.Context) error { return ErrNotConfigured }

func (NullStore) Close() error { return nil }
