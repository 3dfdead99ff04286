package queue

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"

	"print-bridge/internal/models"
)

// MemoryStore keeps jobs for the lifetime of the process. Enqueue and
// completion are O(1); Pending is linear in the restaurant's pending jobs.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*memEntry
	pending   map[string]*list.List // restaurant id -> *memEntry, enqueue order
	completed *list.List            // *memEntry, completion order
}

type memEntry struct {
	job  models.PrintJob
	elem *list.Element
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[string]*memEntry),
		pending:   make(map[string]*list.List),
		completed: list.New(),
	}
}

func (s *MemoryStore) Insert(_ context.Context, job models.PrintJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateJob
	}

	l, ok := s.pending[job.RestaurantID]
	if !ok {
		l = list.New()
		s.pending[job.RestaurantID] = l
	}
	e := &memEntry{job: copyJob(job)}
	e.elem = l.PushBack(e)
	s.jobs[job.ID] = e
	return nil
}

func (s *MemoryStore) Pending(_ context.Context, restaurantID string) ([]models.PrintJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := []models.PrintJob{}
	l, ok := s.pending[restaurantID]
	if !ok {
		return jobs, nil
	}
	for el := l.Front(); el != nil; el = el.Next() {
		jobs = append(jobs, copyJob(el.Value.(*memEntry).job))
	}
	return jobs, nil
}

func (s *MemoryStore) MarkCompleted(_ context.Context, restaurantID, jobID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[jobID]
	if !ok || e.job.RestaurantID != restaurantID || e.job.Status != models.JobPending {
		return false, nil
	}

	if l := s.pending[e.job.RestaurantID]; l != nil {
		l.Remove(e.elem)
		if l.Len() == 0 {
			delete(s.pending, e.job.RestaurantID)
		}
	}
	e.job.Status = models.JobCompleted
	e.job.CompletedAt = &at
	e.elem = s.completed.PushBack(e)
	return true, nil
}

func (s *MemoryStore) Stats(_ context.Context) (models.QueueStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.jobs)
	completed := s.completed.Len()
	return models.QueueStats{
		Total:     total,
		Pending:   total - completed,
		Completed: completed,
	}, nil
}

func (s *MemoryStore) PruneCompleted(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for el := s.completed.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*memEntry)
		if e.job.CompletedAt.Before(before) {
			s.completed.Remove(el)
			delete(s.jobs, e.job.ID)
			pruned++
		}
		el = next
	}
	return pruned, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// copyJob detaches a job from the caller's memory, items included.
func copyJob(job models.PrintJob) models.PrintJob {
	job.OrderData.Items = slices.Clone(job.OrderData.Items)
	if job.CompletedAt != nil {
		at := *job.CompletedAt
		job.CompletedAt = &at
	}
	return job
}
