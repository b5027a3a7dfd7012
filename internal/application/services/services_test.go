package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/application/coordinator"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/manager"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/fetching"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/metrics"
)

func silentLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return logger
}

type stubProvider struct {
	id      string
	key     string
	fetched chan struct{}
}

func newStubProvider(id, key string) *stubProvider {
	return &stubProvider{id: id, key: key, fetched: make(chan struct{}, 8)}
}

func (p *stubProvider) ModeID() string           { return p.id }
func (p *stubProvider) CacheKey() string         { return p.key }
func (p *stubProvider) Strategy() types.Strategy { return types.StrategyFixedTTL }

func (p *stubProvider) Fetch(ctx context.Context) (any, error) {
	p.fetched <- struct{}{}
	return "payload", nil
}

func (p *stubProvider) Decode(raw []byte) (any, error) { return string(raw), nil }

func (p *stubProvider) RenderCurrent(value any) (*display.Frame, error) {
	return &display.Frame{ModeID: p.id}, nil
}

func (p *stubProvider) ScrollText(value any) string { return "" }

// newRefreshFixture builds a refresh service whose fetch workers are NOT
// started, so queue depth observes submissions deterministically.
func newRefreshFixture(t *testing.T) (*RefreshService, *fetching.Service, *manager.Manager, *coordinator.GracefulUpdateCoordinator) {
	t.Helper()
	logger := silentLogger(t)
	cache := manager.NewManager(32, time.Hour, nil)
	fetcher := fetching.NewService(fetching.Config{Workers: 1, QueueCapacity: 8, Timeout: time.Second}, cache, logger, metrics.New())
	coord := coordinator.New(50*time.Millisecond, logger, metrics.New())
	return NewRefreshService(fetcher, cache, coord, logger), fetcher, cache, coord
}

func TestEnsureFreshSubmitsStaleKey(t *testing.T) {
	svc, fetcher, _, _ := newRefreshFixture(t)

	svc.EnsureFresh(newStubProvider("weather", "weather:current"), PriorityCurrentMode)
	if depth := fetcher.QueueDepth(); depth != 1 {
		t.Errorf("queue depth = %d, want 1", depth)
	}
}

func TestEnsureFreshSkipsFreshEntries(t *testing.T) {
	svc, fetcher, cache, _ := newRefreshFixture(t)

	cache.Put("weather:current", "sunny", types.StrategyFixedTTL)
	svc.EnsureFresh(newStubProvider("weather", "weather:current"), PriorityCurrentMode)
	if depth := fetcher.QueueDepth(); depth != 0 {
		t.Errorf("fresh entry still submitted, queue depth = %d", depth)
	}
}

func TestEnsureFreshSkipsLocalModes(t *testing.T) {
	svc, fetcher, _, _ := newRefreshFixture(t)

	svc.EnsureFresh(newStubProvider("clock", ""), PriorityCurrentMode)
	if depth := fetcher.QueueDepth(); depth != 0 {
		t.Errorf("local-render mode submitted a fetch, queue depth = %d", depth)
	}
}

func TestEnsureFreshDefersWhileScrolling(t *testing.T) {
	svc, fetcher, _, coord := newRefreshFixture(t)

	coord.SetScrollingState("news", true)
	svc.EnsureFresh(newStubProvider("news", "news:headlines"), PriorityCurrentMode)

	if depth := fetcher.QueueDepth(); depth != 0 {
		t.Fatalf("submission not deferred, queue depth = %d", depth)
	}
	if pending := coord.PendingCount(); pending != 1 {
		t.Fatalf("pending deferred = %d, want 1", pending)
	}

	coord.SetScrollingState("news", false)
	if applied := coord.ProcessDeferred(); applied != 1 {
		t.Fatalf("ProcessDeferred applied %d, want 1", applied)
	}
	if depth := fetcher.QueueDepth(); depth != 1 {
		t.Errorf("deferred submission never reached the queue, depth = %d", depth)
	}
}

func TestDeferredSubmitRechecksFreshness(t *testing.T) {
	svc, fetcher, cache, coord := newRefreshFixture(t)

	coord.SetScrollingState("news", true)
	svc.EnsureFresh(newStubProvider("news", "news:headlines"), PriorityCurrentMode)

	// Another path refreshes the key before the safe point arrives.
	cache.Put("news:headlines", "fresh headlines", types.StrategyFixedTTL)

	coord.SetScrollingState("news", false)
	coord.ProcessDeferred()
	if depth := fetcher.QueueDepth(); depth != 0 {
		t.Errorf("deferred submit ignored fresh entry, queue depth = %d", depth)
	}
}

type mockMailer struct {
	sent chan string
	err  error
}

func (m *mockMailer) SendOutageAlert(cacheKey string, failures int, lastErr error) error {
	m.sent <- cacheKey
	return m.err
}

func newAlertFixture(t *testing.T, threshold int, cooldown time.Duration) (*AlertService, *mockMailer) {
	t.Helper()
	mailer := &mockMailer{sent: make(chan string, 4)}
	svc := NewAlertService(mailer, silentLogger(t))
	svc.threshold = threshold
	svc.cooldown = cooldown
	return svc, mailer
}

func waitForAlert(t *testing.T, mailer *mockMailer) string {
	t.Helper()
	select {
	case key := <-mailer.sent:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("alert email never sent")
		return ""
	}
}

func assertNoAlert(t *testing.T, mailer *mockMailer) {
	t.Helper()
	select {
	case key := <-mailer.sent:
		t.Fatalf("unexpected alert for %s", key)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAlertFiresAtThreshold(t *testing.T) {
	svc, mailer := newAlertFixture(t, 2, time.Hour)
	failure := errors.New("connection refused")

	svc.RecordFailure("weather:current", failure)
	assertNoAlert(t, mailer)

	svc.RecordFailure("weather:current", failure)
	if key := waitForAlert(t, mailer); key != "weather:current" {
		t.Errorf("alert for %q, want weather:current", key)
	}

	// Streak keeps climbing inside the cooldown window without re-alerting.
	svc.RecordFailure("weather:current", failure)
	assertNoAlert(t, mailer)
	if streak := svc.Streak("weather:current"); streak != 3 {
		t.Errorf("streak = %d, want 3", streak)
	}
}

func TestAlertRespectsCooldownExpiry(t *testing.T) {
	svc, mailer := newAlertFixture(t, 1, 80*time.Millisecond)
	failure := errors.New("timeout")

	svc.RecordFailure("news:headlines", failure)
	waitForAlert(t, mailer)

	svc.RecordFailure("news:headlines", failure)
	assertNoAlert(t, mailer)

	time.Sleep(100 * time.Millisecond)
	svc.RecordFailure("news:headlines", failure)
	waitForAlert(t, mailer)
}

func TestAlertStreakResetsOnSuccess(t *testing.T) {
	svc, mailer := newAlertFixture(t, 2, time.Hour)
	failure := errors.New("boom")

	svc.RecordFailure("stocks:quotes", failure)
	svc.RecordSuccess("stocks:quotes")
	svc.RecordFailure("stocks:quotes", failure)

	assertNoAlert(t, mailer)
	if streak := svc.Streak("stocks:quotes"); streak != 1 {
		t.Errorf("streak = %d, want 1 after reset", streak)
	}
}
