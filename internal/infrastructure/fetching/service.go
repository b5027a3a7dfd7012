package fetching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/metrics"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// Config holds the worker pool settings.
type Config struct {
	Workers       int
	QueueCapacity int
	Timeout       time.Duration
}

// NewConfig creates fetch service configuration from application defaults.
func NewConfig() Config {
	return Config{
		Workers:       config.FetchWorkers,
		QueueCapacity: config.FetchQueueCapacity,
		Timeout:       config.FetchTimeout,
	}
}

// Service executes fetch requests on a bounded worker pool. The render loop
// never fetches; it submits requests here and keeps drawing cached data.
type Service struct {
	cfg      Config
	queue    chan *FetchRequest
	inflight *InflightLock
	cache    interfaces.Cache
	logger   *logging.ChanneledLogger
	metrics  *metrics.Metrics

	mu          sync.Mutex
	handles     map[string]*Handle
	onExhausted func(cacheKey string, err error)
	onSuccess   func(cacheKey string)

	wg sync.WaitGroup
}

// NewService creates the fetch service. Start must be called before
// submitted requests are processed.
func NewService(cfg Config, cache interfaces.Cache, logger *logging.ChanneledLogger, m *metrics.Metrics) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = config.FetchWorkers
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = config.FetchQueueCapacity
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.FetchTimeout
	}

	return &Service{
		cfg:      cfg,
		queue:    make(chan *FetchRequest, cfg.QueueCapacity),
		inflight: NewInflightLock(),
		cache:    cache,
		logger:   logger,
		metrics:  m,
		handles:  make(map[string]*Handle),
	}
}

// Start launches the worker goroutines. Workers exit when ctx is canceled.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i+1)
	}
	s.logger.Fetch().Info("Fetch workers started",
		"workers", s.cfg.Workers, "queueCapacity", s.cfg.QueueCapacity)
}

// WaitStopped blocks until every worker has exited.
func (s *Service) WaitStopped() {
	s.wg.Wait()
}

// OnExhausted registers a callback invoked after a fetch runs out of
// retries. The stale cache entry, if any, is left in place.
func (s *Service) OnExhausted(fn func(cacheKey string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExhausted = fn
}

// OnSuccess registers a callback invoked after a fetch completes and its
// value is cached. Used to reset failure streaks.
func (s *Service) OnSuccess(fn func(cacheKey string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSuccess = fn
}

// Submit enqueues a request and returns its handle. Submitting a cache key
// that is already queued or executing returns the existing handle without
// enqueuing new work. When the queue is full, Submit rejects synchronously
// with ErrQueueSaturated and leaves no trace of the request.
func (s *Service) Submit(req *FetchRequest) (*Handle, error) {
	if req == nil || req.CacheKey == "" || req.Execute == nil {
		return nil, ErrInvalidRequest
	}
	s.applyDefaults(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inflight.TryLock(req.CacheKey) {
		s.logger.Fetch().Debug("Joined in-flight fetch", "cacheKey", req.CacheKey)
		return s.handles[req.CacheKey], nil
	}

	select {
	case s.queue <- req:
	default:
		s.inflight.Unlock(req.CacheKey)
		s.metrics.IncFetchRejected()
		s.logger.Fetch().Warn("Fetch queue saturated",
			"cacheKey", req.CacheKey, "capacity", s.cfg.QueueCapacity)
		return nil, ErrQueueSaturated
	}

	handle := newHandle(req.ID, req.CacheKey)
	s.handles[req.CacheKey] = handle
	s.seedPartial(req)

	s.logger.Fetch().Debug("Fetch queued",
		"id", req.ID, "cacheKey", req.CacheKey, "maxRetries", req.MaxRetries)
	return handle, nil
}

// QueueDepth reports the number of requests waiting for a worker.
func (s *Service) QueueDepth() int {
	return len(s.queue)
}

// InflightCount reports the number of cache keys with a fetch queued or
// executing.
func (s *Service) InflightCount() int {
	return s.inflight.Len()
}

func (s *Service) applyDefaults(req *FetchRequest) {
	if req.ID == "" {
		req.ID = ulid.Make().String()
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = config.FetchMaxRetries
	}
	if req.MaxRetries < 0 {
		req.MaxRetries = 0
	}
	if req.BackoffBase <= 0 {
		req.BackoffBase = config.BackoffBase
	}
	if req.Strategy == "" {
		req.Strategy = types.StrategyFixedTTL
	}
}

// seedPartial stores immediately available data so the key renders before
// the complete fetch lands. Called with s.mu held, under the same claim
// that enqueued the request.
func (s *Service) seedPartial(req *FetchRequest) {
	if req.Partial == nil || s.cache.Has(req.CacheKey) {
		return
	}
	if value, ok := req.Partial(); ok {
		s.cache.Put(req.CacheKey, value, req.Strategy)
		s.logger.Fetch().Debug("Seeded partial result", "cacheKey", req.CacheKey)
	}
}

func (s *Service) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			s.logger.Fetch().Debug("Fetch worker stopped", "worker", id)
			return
		case req := <-s.queue:
			s.process(ctx, req)
		}
	}
}

// process runs a request through its retry budget and publishes the result.
func (s *Service) process(ctx context.Context, req *FetchRequest) {
	started := time.Now()

	var value any
	var err error
	attempts := 0

attempts:
	for attempt := 0; attempt <= req.MaxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.IncFetchRetries()
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break attempts
			case <-time.After(backoffDelay(req.BackoffBase, attempt-1)):
			}
		}

		attempts++
		s.metrics.IncFetchAttempts()
		attemptStart := time.Now()
		value, err = s.safeExecute(ctx, req)
		s.logger.LogFetchAttempt(req.CacheKey, attempts, time.Since(attemptStart), err)
		if err == nil {
			break
		}
	}

	if err != nil {
		err = fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, err)
	}

	s.finish(req, FetchResult{
		ID:       req.ID,
		CacheKey: req.CacheKey,
		Success:  err == nil,
		Value:    value,
		Err:      err,
		Attempts: attempts,
		Elapsed:  time.Since(started),
	})
}

// safeExecute runs the request's Execute under the fetch timeout and turns
// panics into errors so one bad provider cannot kill a worker.
func (s *Service) safeExecute(ctx context.Context, req *FetchRequest) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch %s panicked: %v", req.CacheKey, r)
		}
	}()

	execCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	return req.Execute(execCtx)
}

// finish stores a successful result, releases the key's claim, and wakes
// waiters. The cache write happens under the claim so completed results and
// partial seeds for the same key can never interleave out of order.
func (s *Service) finish(req *FetchRequest, res FetchResult) {
	s.mu.Lock()
	if res.Success {
		s.cache.Put(req.CacheKey, res.Value, req.Strategy)
	}
	handle := s.handles[req.CacheKey]
	delete(s.handles, req.CacheKey)
	s.inflight.Unlock(req.CacheKey)
	exhaustedFn := s.onExhausted
	successFn := s.onSuccess
	s.mu.Unlock()

	if res.Success {
		s.logger.Fetch().Info("Fetch complete",
			"cacheKey", req.CacheKey, "attempts", res.Attempts,
			"elapsedMs", res.Elapsed.Milliseconds())
		if successFn != nil {
			successFn(req.CacheKey)
		}
	} else {
		s.metrics.IncFetchExhausted()
		s.logger.Fetch().Error("Fetch exhausted retries",
			"cacheKey", req.CacheKey, "attempts", res.Attempts, "error", res.Err.Error())
		if exhaustedFn != nil {
			exhaustedFn(req.CacheKey, res.Err)
		}
	}

	if handle != nil {
		handle.complete(res)
	}
}

// backoffDelay doubles the base delay per retry, capped by configuration.
func backoffDelay(base time.Duration, retry int) time.Duration {
	if retry > 30 {
		retry = 30
	}
	delay := base << uint(retry)
	if delay <= 0 || delay > config.BackoffCap {
		delay = config.BackoffCap
	}
	return delay
}
