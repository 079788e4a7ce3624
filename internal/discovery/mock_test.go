package discovery

import (
	"context"
	"time"

	"github.com/bellezapp/discovery-cli/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	salons map[string]*model.DiscoveredSalon

	radiusResult []model.DiscoveredSalon
	radiusErr    error
	radiusCalls  int

	poolResult []model.DiscoveredSalon
	poolErr    error
	poolCalls  int

	// signals maps salonID -> set of userIDs.
	signals   map[string]map[string]bool
	upsertErr error
	countErr  error

	markSelectedErr   error
	markSelectedCalls []string

	outreachRecords []string
	outreachErr     error

	followupResult []model.DiscoveredSalon
	followupErr    error

	statusUpdates map[string]model.Status
}

func newMockStore() *mockStore {
	return &mockStore{
		salons:        make(map[string]*model.DiscoveredSalon),
		signals:       make(map[string]map[string]bool),
		statusUpdates: make(map[string]model.Status),
	}
}

func (m *mockStore) GetSalon(_ context.Context, id string) (*model.DiscoveredSalon, error) {
	s, ok := m.salons[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	copied.InterestCount = len(m.signals[id])
	return &copied, nil
}

func (m *mockStore) SalonsWithinRadius(_ context.Context, _, _, _ float64, _ int) ([]model.DiscoveredSalon, error) {
	m.radiusCalls++
	if m.radiusErr != nil {
		return nil, m.radiusErr
	}
	return m.radiusResult, nil
}

func (m *mockStore) SalonsWithCoordinates(_ context.Context, _ int) ([]model.DiscoveredSalon, error) {
	m.poolCalls++
	if m.poolErr != nil {
		return nil, m.poolErr
	}
	return m.poolResult, nil
}

func (m *mockStore) UpsertInterest(_ context.Context, salonID, userID string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.signals[salonID] == nil {
		m.signals[salonID] = make(map[string]bool)
	}
	m.signals[salonID][userID] = true
	return nil
}

func (m *mockStore) CountInterest(_ context.Context, salonID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.signals[salonID]), nil
}

func (m *mockStore) MarkSelected(_ context.Context, salonID string, now time.Time) error {
	if m.markSelectedErr != nil {
		return m.markSelectedErr
	}
	m.markSelectedCalls = append(m.markSelectedCalls, salonID)
	if s, ok := m.salons[salonID]; ok {
		if s.Status == model.StatusDiscovered {
			s.Status = model.StatusSelected
		}
		if s.FirstSelectedAt == nil {
			t := now
			s.FirstSelectedAt = &t
		}
		t := now
		s.LastSelectedAt = &t
	}
	return nil
}

func (m *mockStore) RecordOutreach(_ context.Context, salonID, channel string, now time.Time) error {
	if m.outreachErr != nil {
		return m.outreachErr
	}
	m.outreachRecords = append(m.outreachRecords, salonID+":"+channel)
	if s, ok := m.salons[salonID]; ok {
		t := now
		s.LastOutreachAt = &t
		s.OutreachCount++
		s.OutreachChannel = channel
		s.Status = model.StatusOutreachSent
	}
	return nil
}

func (m *mockStore) ListFollowupCandidates(_ context.Context, _ time.Time, _ time.Duration, _, _ int) ([]model.DiscoveredSalon, error) {
	if m.followupErr != nil {
		return nil, m.followupErr
	}
	return m.followupResult, nil
}

func (m *mockStore) UpdateStatus(_ context.Context, salonID string, target model.Status) error {
	m.statusUpdates[salonID] = target
	return nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }
