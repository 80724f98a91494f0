package services

import (
	"testing"
	"time"

	"todo-manager/backend/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedTaskService(t *testing.T) (*CachedTaskService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCache(&cache.CacheConfig{Addr: mr.Addr()})
	t.Cleanup(func() { redisCache.Close() })

	return NewCachedTaskService(NewTaskService(), redisCache), mr
}

func TestCachedTaskService_ListRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "alice", "pw1")
	svc, mr := setupCachedTaskService(t)

	_, err := svc.CreateTask(db, owner.ID, TaskInput{Title: "cached"})
	require.NoError(t, err)

	first, err := svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(taskListKey(owner.ID)))

	// Second read is served from the cache and matches.
	second, err := svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCachedTaskService_MutationInvalidates(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "alice", "pw1")
	svc, mr := setupCachedTaskService(t)

	task, err := svc.CreateTask(db, owner.ID, TaskInput{Title: "stale?"})
	require.NoError(t, err)

	_, err = svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(taskListKey(owner.ID)))

	_, err = svc.UpdateTask(db, task.ID, owner.ID, TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.False(t, mr.Exists(taskListKey(owner.ID)))

	tasks, err := svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)

	_, err = svc.DeleteTask(db, task.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(taskListKey(owner.ID)))
}

func TestCachedTaskService_PerOwnerKeys(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice", "pw1")
	bob := createTestUser(t, db, "bob", "pw2")
	svc, _ := setupCachedTaskService(t)

	_, err := svc.CreateTask(db, alice.ID, TaskInput{Title: "hers"})
	require.NoError(t, err)

	aliceTasks, err := svc.GetTasks(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceTasks, 1)

	bobTasks, err := svc.GetTasks(db, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobTasks)
}

func TestCachedTaskService_InvalidationSurvivesOpenBreaker(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "alice", "pw1")
	svc, mr := setupCachedTaskService(t)
	svc.breaker = cache.NewCircuitBreaker(&cache.CircuitBreakerConfig{
		MaxFailures:      1,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	})

	task, err := svc.CreateTask(db, owner.ID, TaskInput{Title: "original"})
	require.NoError(t, err)

	_, err = svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(taskListKey(owner.ID)))

	// A redis outage trips the breaker open; reads degrade to the
	// database.
	mr.SetError("connection refused")
	_, err = svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.Equal(t, cache.CircuitBreakerOpen, svc.breaker.State())

	// Redis comes back while the breaker is still open. The mutation
	// must drop the cached list anyway, or the pre-outage copy would
	// be served once the breaker recovers.
	mr.SetError("")
	_, err = svc.UpdateTask(db, task.ID, owner.ID, TaskPatch{Title: strPtr("updated")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(taskListKey(owner.ID)))

	tasks, err := svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "updated", tasks[0].Title)
}

func TestCachedTaskService_ColdMissClosesHalfOpenBreaker(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "alice", "pw1")
	svc, mr := setupCachedTaskService(t)
	svc.breaker = cache.NewCircuitBreaker(&cache.CircuitBreakerConfig{
		MaxFailures:      1,
		Timeout:          10 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	_, err := svc.CreateTask(db, owner.ID, TaskInput{Title: "cold"})
	require.NoError(t, err)

	mr.SetError("connection refused")
	_, err = svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.Equal(t, cache.CircuitBreakerOpen, svc.breaker.State())

	mr.SetError("")
	time.Sleep(20 * time.Millisecond)

	// The first read after recovery hits an empty cache. The miss is a
	// normal outcome and must close the breaker, not reopen it.
	tasks, err := svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, cache.CircuitBreakerClosed, svc.breaker.State())
	assert.True(t, mr.Exists(taskListKey(owner.ID)))
}

func TestCachedTaskService_RedisDownFallsThrough(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "alice", "pw1")
	svc, mr := setupCachedTaskService(t)

	_, err := svc.CreateTask(db, owner.ID, TaskInput{Title: "resilient"})
	require.NoError(t, err)

	mr.Close()

	// A dead cache degrades to plain database reads.
	tasks, err := svc.GetTasks(db, owner.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}
