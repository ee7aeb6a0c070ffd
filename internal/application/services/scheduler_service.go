package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/constants"
)

const (
	sessionCleanupEvery   = time.Hour
	outboxRetainFor       = 72 * time.Hour
	forecastRefreshEvery  = 24 * time.Hour
	transcriptionsPerTick = 5
)

// SchedulerService drives all periodic background work: due scheduled
// workflows, the transcription queue, forecast refreshes, and cleanup of
// expired sessions and old outbox rows.
type SchedulerService struct {
	workflows      *persistence.WorkflowRepository
	tenants        *persistence.TenantRepository
	executor       *WorkflowExecutor
	transcriptions *TranscriptionService
	forecasts      *ForecastService
	auth           *AuthService
	outbox         *OutboxService

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopped  bool // prevents double-close of stopChan

	lastCleanup  time.Time
	lastForecast time.Time
}

func NewSchedulerService(
	workflows *persistence.WorkflowRepository,
	tenants *persistence.TenantRepository,
	executor *WorkflowExecutor,
	transcriptions *TranscriptionService,
	forecasts *ForecastService,
	auth *AuthService,
	outbox *OutboxService,
) *SchedulerService {
	return &SchedulerService{
		workflows:      workflows,
		tenants:        tenants,
		executor:       executor,
		transcriptions: transcriptions,
		forecasts:      forecasts,
		auth:           auth,
		outbox:         outbox,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the scheduler background loop. Blocks until Stop; run it in a
// goroutine.
func (s *SchedulerService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Scheduler service starting...")

	ticker := time.NewTicker(constants.ScheduleCheckIntervalSecs * time.Second)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			log.Println("⏰ Scheduler service stopping...")
			s.wg.Wait()
			log.Println("⏰ Scheduler service stopped")
			return
		}
	}
}

// Stop gracefully stops the scheduler.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

func (s *SchedulerService) tick() {
	ctx := context.Background()

	s.runDueWorkflows(ctx)
	s.drainTranscriptions(ctx)

	if time.Since(s.lastCleanup) >= sessionCleanupEvery {
		s.lastCleanup = time.Now()
		s.runCleanups(ctx)
	}
	if time.Since(s.lastForecast) >= forecastRefreshEvery {
		s.lastForecast = time.Now()
		s.refreshForecasts(ctx)
	}
}

// runDueWorkflows starts every scheduled workflow whose next_run_at has
// passed. Each runs in its own goroutine behind the is_running lock.
func (s *SchedulerService) runDueWorkflows(ctx context.Context) {
	due, err := s.workflows.FindDueScheduled(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("⚠️ Failed to list due workflows: %v", err)
		return
	}

	for _, wf := range due {
		s.wg.Add(1)
		go func(wf *models.Workflow) {
			defer s.wg.Done()
			s.executeScheduledWorkflow(wf)
		}(wf)
	}
}

// executeScheduledWorkflow runs a single due workflow with safety guards.
func (s *SchedulerService) executeScheduledWorkflow(wf *models.Workflow) {
	log.Printf("⏰ Starting scheduled workflow: %s (%s)", wf.Name, wf.ID)

	acquired, err := s.workflows.AcquireRunLock(context.Background(), wf.ID)
	if err != nil {
		log.Printf("⚠️ Failed to acquire lock for workflow %s: %v", wf.ID, err)
		return
	}
	if !acquired {
		log.Printf("⏭️ Workflow %s is already running, skipping", wf.Name)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in scheduled workflow %s: %v", wf.Name, r)
		}
		s.releaseWithNextRun(wf)
	}()

	timeout := time.Duration(constants.ScheduleMaxRuntimeMins) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startTime := time.Now()
	run, err := s.executor.Start(ctx, wf, nil, constants.SystemUserID)
	duration := time.Since(startTime)

	switch {
	case err != nil:
		log.Printf("❌ Scheduled workflow %s failed after %v: %v", wf.Name, duration, err)
	case run.Error != "":
		log.Printf("❌ Scheduled workflow %s failed after %v: %s", wf.Name, duration, run.Error)
	default:
		log.Printf("✅ Scheduled workflow %s finished in %v (run %s, state %s)", wf.Name, duration, run.ID, run.State)
	}
}

// releaseWithNextRun releases the run lock and stamps last/next run times.
func (s *SchedulerService) releaseWithNextRun(wf *models.Workflow) {
	now := time.Now().UTC()

	var nextRun *time.Time
	if wf.Schedule != nil && *wf.Schedule != "" {
		schedule, err := parseCron(*wf.Schedule)
		if err != nil {
			log.Printf("⚠️ Invalid schedule on workflow %s: %v", wf.ID, err)
		} else {
			next := schedule.Next(now)
			nextRun = &next
		}
	}

	if err := s.workflows.ReleaseRunLock(context.Background(), wf.ID, now, nextRun); err != nil {
		log.Printf("⚠️ Failed to release run lock for workflow %s: %v", wf.ID, err)
	}
}

// drainTranscriptions processes up to a handful of pending jobs per tick so a
// deep queue cannot starve the rest of the loop.
func (s *SchedulerService) drainTranscriptions(ctx context.Context) {
	for i := 0; i < transcriptionsPerTick; i++ {
		processed, err := s.transcriptions.ProcessNext(ctx)
		if err != nil {
			log.Printf("⚠️ Transcription worker error: %v", err)
			return
		}
		if !processed {
			return
		}
	}
}

func (s *SchedulerService) runCleanups(ctx context.Context) {
	if n, err := s.auth.CleanupExpiredSessions(ctx); err != nil {
		log.Printf("⚠️ Session cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("🔄 Cleaned up %d expired sessions", n)
	}

	if n, err := s.outbox.CleanupProcessed(ctx, outboxRetainFor); err != nil {
		log.Printf("⚠️ Outbox cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("🔄 Cleaned up %d processed outbox events", n)
	}
}

func (s *SchedulerService) refreshForecasts(ctx context.Context) {
	tenants, err := s.tenants.FindAll(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to list tenants for forecast refresh: %v", err)
		return
	}

	for _, t := range tenants {
		if t.Status != constants.TenantStatusActive {
			continue
		}
		if _, err := s.forecasts.Generate(ctx, t.ID); err != nil {
			log.Printf("⚠️ Forecast refresh failed for tenant %s: %v", t.ID, err)
		}
	}
}
