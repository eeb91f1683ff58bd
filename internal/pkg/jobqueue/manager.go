package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/env"
	metrics "github.com/freezeflowai/hvac-pm-platform/internal/pkg/metrics/counter"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/statistics"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	reminderTicker     *time.Ticker
	counterFlushTicker *time.Ticker
	statsTicker        *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 5
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "5")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	reminderInterval := 5 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("REMINDER_SCAN_INTERVAL_MINUTES", "5")); err == nil && v > 0 {
		reminderInterval = time.Duration(v) * time.Minute
	}

	// Periodic scan for appointments entering the reminder window
	m.reminderTicker = time.NewTicker(reminderInterval)
	m.wg.Add(1)
	go m.reminderWorker()

	// Counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Daily stats rollup every hour
	m.statsTicker = time.NewTicker(time.Hour)
	m.wg.Add(1)
	go m.statsWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.reminderTicker != nil {
		m.reminderTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.statsTicker != nil {
		m.statsTicker.Stop()
	}

	close(m.stopCh)
	m.running = false

	m.wg.Wait()

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// reminderWorker runs periodically to enqueue reminders for upcoming visits
func (m *Manager) reminderWorker() {
	defer m.wg.Done()
	log.Info("[JobQueue Manager] Started reminder worker")

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Reminder worker stopping")
			return
		case <-m.reminderTicker.C:
			if err := m.queue.EnqueueDueReminders(); err != nil {
				log.Errorf("[JobQueue Manager] Error scanning for due reminders: %v", err)
			}
		}
	}
}

// counterFlushWorker periodically flushes in-memory counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// statsWorker periodically rolls up per-company daily statistics
func (m *Manager) statsWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Stats worker stopping")
			return
		case <-m.statsTicker.C:
			if err := statistics.RollupDailyStats(time.Now()); err != nil {
				log.Errorf("[JobQueue Manager] Stats rollup error: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
