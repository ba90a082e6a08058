package models

import (
	"fmt"
	"time"
)

// Snapshot is a persisted [Dashboard] with soft delete support.
type Snapshot struct {
	id        string
	sequence  int
	owner     string
	dashboard *Dashboard
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewSnapshot creates a [Snapshot] for d. The ID is assigned by the repository.
func NewSnapshot(sequence int, owner string, d *Dashboard) *Snapshot {
	now := time.Now()
	return &Snapshot{
		sequence:  sequence,
		owner:     owner,
		dashboard: d,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Snapshot) ID() string            { return s.id }
func (s *Snapshot) Sequence() int         { return s.sequence }
func (s *Snapshot) Owner() string         { return s.owner }
func (s *Snapshot) Dashboard() *Dashboard { return s.dashboard }
func (s *Snapshot) CreatedAt() time.Time  { return s.createdAt }
func (s *Snapshot) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Snapshot) DeletedAt() *time.Time { return s.deletedAt }

// TimeRange is the window the snapshot was loaded for.
func (s *Snapshot) TimeRange() TimeRange {
	if s.dashboard == nil {
		return ""
	}
	return s.dashboard.TimeRange
}

func (s *Snapshot) SetID(id string)           { s.id = id }
func (s *Snapshot) SetSequence(n int)         { s.sequence = n }
func (s *Snapshot) SetOwner(owner string)     { s.owner = owner }
func (s *Snapshot) SetCreatedAt(t time.Time)  { s.createdAt = t }
func (s *Snapshot) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *Snapshot) SetDeletedAt(t *time.Time) { s.deletedAt = t }
func (s *Snapshot) IsDeleted() bool           { return s.deletedAt != nil }

// Validate checks that the snapshot has an ID and a complete dashboard.
func (s *Snapshot) Validate() error {
	if s.id == "" {
		return fmt.Errorf("snapshot ID is required")
	}
	if err := s.dashboard.Validate(); err != nil {
		return fmt.Errorf("snapshot %s: %w", s.id, err)
	}
	return nil
}
