package services

import (
	"fmt"
	"log"
	"time"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
)

const taskListTTL = 10 * time.Minute

// CachedTaskService decorates a TaskService with a per-owner task-list
// cache. The cache is best-effort: a miss, a redis failure or an open
// circuit breaker all fall through to the database, and every mutation
// by an owner drops that owner's cached list. Observable CRUD semantics
// are identical to the wrapped service.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
	breaker     *cache.CircuitBreaker
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		breaker:     cache.NewCircuitBreaker(nil),
	}
}

func taskListKey(ownerID uint) string {
	return fmt.Sprintf("user_tasks:%d", ownerID)
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, ownerID uint, input TaskInput) (models.Task, error) {
	task, err := s.taskService.CreateTask(db, ownerID, input)
	if err != nil {
		return task, err
	}
	s.invalidate(ownerID)
	return task, nil
}

func (s *CachedTaskService) GetTasks(db *gorm.DB, ownerID uint) ([]models.Task, error) {
	var cached []models.Task
	found := false
	err := s.breaker.Execute(func() error {
		err := s.cache.Get(taskListKey(ownerID), &cached)
		if err == cache.ErrCacheMiss {
			// A miss is a normal outcome, not a redis fault; counting
			// it as a failure would re-open a half-open breaker on
			// every cold cache.
			return nil
		}
		if err == nil {
			found = true
		}
		return err
	})
	if err == nil && found {
		return cached, nil
	}
	if err != nil && err != cache.ErrCircuitBreakerOpen {
		log.Printf("task list cache read failed: %v", err)
	}

	tasks, err := s.taskService.GetTasks(db, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.breaker.Execute(func() error {
		return s.cache.Set(taskListKey(ownerID), tasks, taskListTTL)
	}); err != nil && err != cache.ErrCircuitBreakerOpen {
		log.Printf("task list cache write failed: %v", err)
	}

	return tasks, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id, ownerID uint) (models.Task, error) {
	return s.taskService.GetTaskByID(db, id, ownerID)
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id, ownerID uint, patch TaskPatch) (models.Task, error) {
	task, err := s.taskService.UpdateTask(db, id, ownerID, patch)
	if err != nil {
		return task, err
	}
	s.invalidate(ownerID)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, id, ownerID uint) (models.Task, error) {
	task, err := s.taskService.DeleteTask(db, id, ownerID)
	if err != nil {
		return task, err
	}
	s.invalidate(ownerID)
	return task, nil
}

// invalidate bypasses the circuit breaker: a skipped delete would leave
// a pre-outage list in redis and let a later read serve stale data, so
// the delete is always attempted even while the breaker is open.
func (s *CachedTaskService) invalidate(ownerID uint) {
	if err := s.cache.Delete(taskListKey(ownerID)); err != nil {
		log.Printf("task list cache invalidation failed: %v", err)
	}
}
