// Package database opens the Postgres pool and watches its health.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// Pinger is the part of *sql.DB the health monitor needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// Open connects to dsn and pings it, retrying with exponential backoff up to
// retries extra attempts.
func Open(ctx context.Context, dsn string, retries uint64, log *logrus.Logger) (*sql.DB, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := PingWithRetry(ctx, db, retries, 500*time.Millisecond, log); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// PingWithRetry pings db until it answers or the attempts run out.
func PingWithRetry(ctx context.Context, db Pinger, retries uint64, base time.Duration, log *logrus.Logger) error {
	backoff := retry.WithMaxRetries(retries, retry.WithCappedDuration(10*time.Second, retry.NewExponential(base)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("Database ping failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
	}
	return nil
}

// Monitor pings the database on a cron schedule and logs when it goes down or
// comes back. database/sql re-dials broken connections on its own; the
// monitor only makes outages visible.
type Monitor struct {
	db      Pinger
	log     *logrus.Logger
	timeout time.Duration
	cron    *cron.Cron

	mu      sync.Mutex
	healthy bool
}

// NewMonitor schedules a ping every interval. Call Start to begin.
func NewMonitor(db Pinger, interval time.Duration, log *logrus.Logger) (*Monitor, error) {
	m := &Monitor{
		db:      db,
		log:     log,
		timeout: 5 * time.Second,
		cron:    cron.New(),
		healthy: true,
	}
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", interval), m.Check); err != nil {
		return nil, fmt.Errorf("failed to schedule health check: %w", err)
	}
	return m, nil
}

// Start runs the schedule in the background.
func (m *Monitor) Start() {
	m.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}

// Healthy reports the result of the last check.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// Check pings once and records the result.
func (m *Monitor) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	err := m.db.PingContext(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil && m.healthy:
		m.log.WithError(err).Error("Database connection lost")
	case err == nil && !m.healthy:
		m.log.Info("Database connection restored")
	}
	m.healthy = err == nil
}
