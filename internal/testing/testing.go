// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tunedash/internal/models"
)

// MockService is a test double for [services.Service].
//
// Each call is counted; nil funcs return zero values.
type MockService struct {
	StatusFunc     func(ctx context.Context) (*models.Status, error)
	AnalysisFunc   func(ctx context.Context) (*models.AnalysisResult, error)
	TopTracksFunc  func(ctx context.Context, r models.TimeRange) ([]models.Track, error)
	TopArtistsFunc func(ctx context.Context, r models.TimeRange) ([]models.Artist, error)
	LogoutFunc     func(ctx context.Context) error

	mu    sync.Mutex
	calls map[string]int
	// Ranges records the time range of every TopTracks call in order.
	Ranges []models.TimeRange
}

func (m *MockService) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls returns how many times the named method ran.
func (m *MockService) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockService) Status(ctx context.Context) (*models.Status, error) {
	m.record("Status")
	if m.StatusFunc == nil {
		return &models.Status{}, nil
	}
	return m.StatusFunc(ctx)
}

func (m *MockService) Analysis(ctx context.Context) (*models.AnalysisResult, error) {
	m.record("Analysis")
	if m.AnalysisFunc == nil {
		return &models.AnalysisResult{}, nil
	}
	return m.AnalysisFunc(ctx)
}

func (m *MockService) TopTracks(ctx context.Context, r models.TimeRange) ([]models.Track, error) {
	m.record("TopTracks")
	m.mu.Lock()
	m.Ranges = append(m.Ranges, r)
	m.mu.Unlock()
	if m.TopTracksFunc == nil {
		return []models.Track{}, nil
	}
	return m.TopTracksFunc(ctx, r)
}

func (m *MockService) TopArtists(ctx context.Context, r models.TimeRange) ([]models.Artist, error) {
	m.record("TopArtists")
	if m.TopArtistsFunc == nil {
		return []models.Artist{}, nil
	}
	return m.TopArtistsFunc(ctx, r)
}

func (m *MockService) Logout(ctx context.Context) error {
	m.record("Logout")
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx)
}

func (m *MockService) LoginURL() string { return "http://backend.test/login" }

// MemoryStore is an in-memory key/value store satisfying session.Store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	// Err, when set, is returned by every operation.
	Err error
}

func NewMemoryStore(kv ...string) *MemoryStore {
	s := &MemoryStore{values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		s.values[kv[i]] = kv[i+1]
	}
	return s
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", false, s.Err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.values, key)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	// Requests holds every request seen, in order.
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
