package outreach

import (
	"context"
	"sync"
	"time"

	"github.com/bellezapp/discovery-cli/internal/discovery"
	"github.com/bellezapp/discovery-cli/internal/model"
)

// mockStore implements discovery.Store for outreach tests.
type mockStore struct {
	mu sync.Mutex

	salons map[string]*model.DiscoveredSalon

	// signals maps salonID -> set of userIDs.
	signals   map[string]map[string]bool
	upsertErr error

	outreachRecords []string
	outreachErr     error

	followupResult []model.DiscoveredSalon
	followupErr    error
}

func newMockStore() *mockStore {
	return &mockStore{
		salons:  make(map[string]*model.DiscoveredSalon),
		signals: make(map[string]map[string]bool),
	}
}

func (m *mockStore) GetSalon(_ context.Context, id string) (*model.DiscoveredSalon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.salons[id]
	if !ok {
		return nil, discovery.ErrNotFound
	}
	copied := *s
	if n := len(m.signals[id]); n > 0 {
		copied.InterestCount = n
	}
	return &copied, nil
}

func (m *mockStore) SalonsWithinRadius(_ context.Context, _, _, _ float64, _ int) ([]model.DiscoveredSalon, error) {
	return nil, discovery.ErrSpatialUnsupported
}

func (m *mockStore) SalonsWithCoordinates(_ context.Context, _ int) ([]model.DiscoveredSalon, error) {
	return nil, nil
}

func (m *mockStore) UpsertInterest(_ context.Context, salonID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.signals[salonID]), nil
}

func (m *mockStore) MarkSelected(_ context.Context, salonID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.salons[salonID]; ok {
		s.Status = target
	}
	return nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

func (m *mockStore) records() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.outreachRecords...)
}

// fakeTexter records sent text messages and fails on demand.
type fakeTexter struct {
	mu    sync.Mutex
	sent  []string // "to|message"
	err   error
	calls int
}

func (f *fakeTexter) SendText(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+message)
	return nil
}

// fakeMailer records sent emails and fails on demand.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // "to|subject|body"
	err   error
	calls int
}

func (f *fakeMailer) SendEmail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject+"|"+body)
	return nil
}
