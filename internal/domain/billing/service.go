package billing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SnapshotWriter is the handoff channel the service writes finalized
// records to.
type SnapshotWriter interface {
	Put(ctx context.Context, key string, rec PatientRecord, ttl time.Duration) error
}

// SessionState is the externally visible state of one builder session.
type SessionState struct {
	ID      uuid.UUID     `json:"id"`
	Record  PatientRecord `json:"record"`
	Pending Pending       `json:"pending"`
	Total   int           `json:"total"`
}

type Service struct {
	catalog    *Catalog
	roster     *Roster
	sessions   *SessionStore
	handoff    SnapshotWriter
	handoffTTL time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

func NewService(ref ReferenceData, sessions *SessionStore, handoff SnapshotWriter, logger zerolog.Logger) *Service {
	return &Service{
		catalog:    ref.NewCatalog(),
		roster:     ref.NewRoster(),
		sessions:   sessions,
		handoff:    handoff,
		handoffTTL: 24 * time.Hour,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the clock used to date new records.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetHandoffTTL sets how long a finalized snapshot stays readable.
func (s *Service) SetHandoffTTL(ttl time.Duration) {
	s.handoffTTL = ttl
}

func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) Roster() *Roster { return s.roster }

// FilterCatalog materialises Catalog.Filter for callers that need a slice.
func (s *Service) FilterCatalog(query string) []CatalogEntry {
	out := slices.Collect(s.catalog.Filter(query))
	if out == nil {
		out = []CatalogEntry{}
	}
	return out
}

func (s *Service) CreateSession(_ context.Context) *SessionState {
	b := NewBuilder(s.catalog, s.now())
	id := s.sessions.Create(b)
	s.logger.Debug().Str("session_id", id.String()).Msg("billing session created")
	return stateOf(id, b)
}

func (s *Service) GetSession(_ context.Context, id uuid.UUID) (*SessionState, error) {
	return s.apply(id, func(*Builder) error { return nil })
}

func (s *Service) DeleteSession(_ context.Context, id uuid.UUID) error {
	return s.sessions.Delete(id)
}

func (s *Service) SetField(_ context.Context, id uuid.UUID, field, value string) (*SessionState, error) {
	return s.apply(id, func(b *Builder) error { return b.SetField(field, value) })
}

// ToggleDoctor only accepts doctors on the roster; anything else is
// rejected without touching the record.
func (s *Service) ToggleDoctor(_ context.Context, id uuid.UUID, doctor string) (*SessionState, error) {
	if !s.roster.Contains(doctor) {
		return nil, ErrUnknownDoctor
	}
	return s.apply(id, func(b *Builder) error {
		b.ToggleDoctor(doctor)
		return nil
	})
}

func (s *Service) SelectTest(_ context.Context, id uuid.UUID, test string) (*SessionState, error) {
	return s.apply(id, func(b *Builder) error {
		b.SelectTestCandidate(test)
		return nil
	})
}

func (s *Service) SelectPrice(_ context.Context, id uuid.UUID, price int) (*SessionState, error) {
	return s.apply(id, func(b *Builder) error { return b.SelectPriceForCandidate(price) })
}

func (s *Service) CommitTest(_ context.Context, id uuid.UUID) (*SessionState, error) {
	return s.apply(id, func(b *Builder) error { return b.CommitTest() })
}

func (s *Service) RemoveTest(_ context.Context, id uuid.UUID, index int) (*SessionState, error) {
	return s.apply(id, func(b *Builder) error { return b.RemoveTest(index) })
}

func (s *Service) Total(_ context.Context, id uuid.UUID) (int, error) {
	total := 0
	err := s.sessions.With(id, func(b *Builder) error {
		total = b.ComputeTotal()
		return nil
	})
	return total, err
}

// Finalize validates the session's record and writes the snapshot to the
// handoff channel under the session id.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (PatientRecord, error) {
	var snap PatientRecord
	err := s.sessions.With(id, func(b *Builder) error {
		rec, err := b.Finalize()
		if err != nil {
			return err
		}
		if err := s.handoff.Put(ctx, id.String(), rec, s.handoffTTL); err != nil {
			return fmt.Errorf("hand off billing record: %w", err)
		}
		snap = rec
		return nil
	})
	if err != nil {
		return PatientRecord{}, err
	}

	s.logger.Info().
		Str("session_id", id.String()).
		Int("tests", len(snap.SelectedTests)).
		Int("doctors", len(snap.ReferredDoctors)).
		Int("total", Total(snap.SelectedTests)).
		Msg("billing record finalized")
	return snap, nil
}

func (s *Service) apply(id uuid.UUID, fn func(b *Builder) error) (*SessionState, error) {
	var st *SessionState
	err := s.sessions.With(id, func(b *Builder) error {
		if err := fn(b); err != nil {
			return err
		}
		st = stateOf(id, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func stateOf(id uuid.UUID, b *Builder) *SessionState {
	return &SessionState{
		ID:      id,
		Record:  b.Record(),
		Pending: b.Pending(),
		Total:   b.ComputeTotal(),
	}
}
