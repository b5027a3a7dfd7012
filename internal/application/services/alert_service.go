package services

import (
	"sync"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/email"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/fetching"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// AlertService turns consecutive fetch failures into outage alert emails.
// A feed alerts once per cooldown window while its streak stays above the
// threshold; any successful fetch resets the streak.
type AlertService struct {
	mu        sync.Mutex
	streaks   map[string]int
	lastAlert map[string]time.Time

	threshold int
	cooldown  time.Duration
	mailer    email.Service
	logger    *logging.ChanneledLogger
}

// NewAlertService creates the alert service with thresholds from
// configuration.
func NewAlertService(mailer email.Service, logger *logging.ChanneledLogger) *AlertService {
	return &AlertService{
		streaks:   make(map[string]int),
		lastAlert: make(map[string]time.Time),
		threshold: config.AlertFailureThreshold,
		cooldown:  config.AlertCooldown,
		mailer:    mailer,
		logger:    logger,
	}
}

// Bind attaches the alert hooks to the fetch service.
func (s *AlertService) Bind(f *fetching.Service) {
	f.OnExhausted(s.RecordFailure)
	f.OnSuccess(s.RecordSuccess)
}

// RecordFailure notes one exhausted fetch for a cache key and sends an alert
// when the streak crosses the threshold outside the cooldown window.
func (s *AlertService) RecordFailure(cacheKey string, err error) {
	s.mu.Lock()
	s.streaks[cacheKey]++
	streak := s.streaks[cacheKey]
	now := time.Now().UTC()
	alerting := streak >= s.threshold && now.Sub(s.lastAlert[cacheKey]) >= s.cooldown
	if alerting {
		s.lastAlert[cacheKey] = now
	}
	s.mu.Unlock()

	if !alerting {
		return
	}

	s.logger.Alert().Warn("Feed outage threshold reached",
		"cacheKey", cacheKey, "failures", streak, "threshold", s.threshold)

	// Delivery happens off the fetch worker's goroutine; a slow mail API
	// must not hold up retries for other feeds.
	go s.send(cacheKey, streak, err)
}

// RecordSuccess clears a key's failure streak.
func (s *AlertService) RecordSuccess(cacheKey string) {
	s.mu.Lock()
	recovered := s.streaks[cacheKey] >= s.threshold
	delete(s.streaks, cacheKey)
	s.mu.Unlock()

	if recovered {
		s.logger.Alert().Info("Feed recovered", "cacheKey", cacheKey)
	}
}

// Streak reports a key's current consecutive failure count.
func (s *AlertService) Streak(cacheKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaks[cacheKey]
}

func (s *AlertService) send(cacheKey string, failures int, lastErr error) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendOutageAlert(cacheKey, failures, lastErr); err != nil {
		s.logger.Email().Error("Failed to send outage alert",
			"cacheKey", cacheKey, "error", err.Error())
		return
	}
	s.logger.Email().Info("Outage alert sent", "cacheKey", cacheKey, "failures", failures)
}
