package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// historyLimit is how many results are kept per task.
const historyLimit = 100

// Scheduler re-indexes owners' workspaces in the background.
// It is a pure core service with no external control API.
type Scheduler struct {
	config  domain.SchedulerConfig
	indexer driving.IndexService
	tick    time.Duration
	now     func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	tasks   map[string]*domain.ScheduledTask
	busy    map[string]bool
	history map[string][]domain.TaskResult
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config domain.SchedulerConfig, indexer driving.IndexService) *Scheduler {
	return &Scheduler{
		config:  config,
		indexer: indexer,
		tick:    time.Minute,
		now:     time.Now,
		tasks:   make(map[string]*domain.ScheduledTask),
		busy:    make(map[string]bool),
		history: make(map[string][]domain.TaskResult),
	}
}

// SetTickInterval sets how often due tasks are checked.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.initialiseTasks()
	s.mu.Unlock()

	err := s.run(ctx)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return err
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Tasks returns a snapshot of the scheduled tasks ordered by id.
func (s *Scheduler) Tasks() []domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// History returns recent results for a task, most recent first.
func (s *Scheduler) History(taskID string) []domain.TaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.history[taskID]
	out := make([]domain.TaskResult, len(results))
	for i := range results {
		out[i] = results[len(results)-1-i]
	}
	return out
}

// initialiseTasks creates one task per configured owner. Tasks are due
// immediately so the index is fresh when the server starts.
func (s *Scheduler) initialiseTasks() {
	for _, owner := range s.config.Owners {
		if !owner.IsValid() {
			continue
		}
		id := domain.ReindexTaskID(owner)
		if task, ok := s.tasks[id]; ok {
			task.Interval = s.config.Interval
			continue
		}
		s.tasks[id] = &domain.ScheduledTask{
			ID:       id,
			Owner:    owner,
			Interval: s.config.Interval,
		}
	}
}

func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks starts every due task that is not already running.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	now := s.now()
	for id, task := range s.tasks {
		if s.busy[id] || !task.Due(now) {
			continue
		}
		s.busy[id] = true
		s.wg.Add(1)
		go s.runTask(ctx, id, task.Owner)
	}
}

func (s *Scheduler) runTask(ctx context.Context, id string, owner domain.Owner) {
	defer s.wg.Done()

	result := domain.TaskResult{TaskID: id, StartedAt: s.now()}

	var err error
	if s.indexer == nil {
		err = domain.ErrEmbeddingUnavailable
	} else {
		var report *domain.IndexReport
		report, err = s.indexer.IndexOwner(ctx, owner)
		if report != nil {
			result.ItemsProcessed = report.IndexedCount
		}
	}
	result.EndedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.busy, id)
	task, ok := s.tasks[id]
	if !ok {
		return
	}
	if err != nil {
		result.Error = err.Error()
		task.LastError = err.Error()
		logger.Warn("Scheduled re-index of %s failed: %v", owner, err)
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
		logger.Debug("Scheduled re-index of %s indexed %d slides", owner, result.ItemsProcessed)
	}
	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	history := append(s.history[id], result)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	s.history[id] = history
}
