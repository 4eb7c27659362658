package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"dbd/internal/access"
	"dbd/internal/models"
	"dbd/internal/notify"
	"dbd/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockOracle implements access.Oracle with injectable data and errors.
type MockOracle struct {
	mu    sync.Mutex
	ACLs  map[string]*access.TenantACL
	Err   error
	Calls int
}

func (m *MockOracle) TenantACL(_ context.Context, tenant string) (*access.TenantACL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if acl, ok := m.ACLs[tenant]; ok {
		return acl, nil
	}
	return &access.TenantACL{}, nil
}

// MockResolver implements access.ResolverInterface with a fixed answer
// per address. Addresses are compared lower-cased, same as the real
// resolver.
type MockResolver struct {
	Levels map[string]access.Level
	Names  map[string]string
	Reason string
}

func (m *MockResolver) Resolve(_ context.Context, _, address string, write bool) (access.Level, string) {
	if level, ok := m.Levels[strings.ToLower(address)]; ok {
		return level, m.Reason
	}
	if write {
		return access.None, "address is not on the posting list"
	}
	return access.Reader, ""
}

func (m *MockResolver) DisplayName(_ context.Context, _, address string) string {
	return m.Names[strings.ToLower(address)]
}

// MockSink implements notify.SinkInterface and records events.
type MockSink struct {
	mu     sync.Mutex
	Events []*notify.Event
}

func (m *MockSink) Broadcast(_ string, event *notify.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

func (m *MockSink) All() []*notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*notify.Event(nil), m.Events...)
}

// MockAnchorClient implements ledger.AnchorClientInterface with
// injectable failures.
type MockAnchorClient struct {
	mu        sync.Mutex
	Fail      bool
	Refs      int
	Summaries []*models.BatchSummary
}

func (m *MockAnchorClient) AnchorLink(_ context.Context, _ string, link *models.ChainLink, _ []byte) (*models.AnchorRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return nil, context.DeadlineExceeded
	}
	m.Refs++
	return &models.AnchorRef{ContentId: "cid-" + link.Hash[:8], Url: "https://cas.example/" + link.Hash[:8]}, nil
}

func (m *MockAnchorClient) AnchorSummary(_ context.Context, _ string, summary *models.BatchSummary) (*models.AnchorRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return nil, context.DeadlineExceeded
	}
	m.Summaries = append(m.Summaries, summary)
	return &models.AnchorRef{ContentId: "cid-summary"}, nil
}

func (m *MockAnchorClient) SummaryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Summaries)
}

// MockBatcher implements ledger.BatcherInterface and records enqueued posts.
type MockBatcher struct {
	mu    sync.Mutex
	Posts []*models.Post
}

func (m *MockBatcher) Enqueue(_ string, post *models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts = append(m.Posts, post)
}

func (m *MockBatcher) RetrySweep()                   {}
func (m *MockBatcher) FlushAll(_ context.Context)    {}
func (m *MockBatcher) Preload(_ string)              {}
func (m *MockBatcher) ChainLengths() map[string]int  { return map[string]int{} }
func (m *MockBatcher) Close()                        {}

func (m *MockBatcher) Enqueued() []*models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Post(nil), m.Posts...)
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu             sync.Mutex
	Requests       int
	CacheHits      int
	CacheMisses    int
	PostsAccepted  map[string]int
	AnchorFailures int
	Flushes        map[string]int
	ChainLen       map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		PostsAccepted: make(map[string]int),
		Flushes:       make(map[string]int),
		ChainLen:      make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) IncPostsAccepted(tenant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsAccepted[tenant]++
}

func (m *MockMetrics) IncAnchorFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnchorFailures++
}

func (m *MockMetrics) IncBatchFlushes(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes[outcome]++
}

func (m *MockMetrics) ObserveFlushDuration(_ time.Duration) {}

func (m *MockMetrics) SetChainLength(tenant string, length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChainLen[tenant] = length
}

func (m *MockMetrics) AnchorFailureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AnchorFailures
}
