package services

import (
	"errors"

	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
)

type TaskInput struct {
	Title       string
	Description string
	Completed   bool
}

// TaskPatch enumerates the updatable fields; only non-nil fields are
// applied. This replaces attribute-name-driven reflection with an
// explicit structure.
type TaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TaskService is ownership-scoped: every operation filters by the owner
// id, and a task that does not exist is indistinguishable from a task
// owned by someone else (both are ErrTaskNotFound).
type TaskService interface {
	CreateTask(db *gorm.DB, ownerID uint, input TaskInput) (models.Task, error)
	GetTasks(db *gorm.DB, ownerID uint) ([]models.Task, error)
	GetTaskByID(db *gorm.DB, id, ownerID uint) (models.Task, error)
	UpdateTask(db *gorm.DB, id, ownerID uint, patch TaskPatch) (models.Task, error)
	DeleteTask(db *gorm.DB, id, ownerID uint) (models.Task, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, ownerID uint, input TaskInput) (models.Task, error) {
	task := models.Task{
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
	}
	if err := db.Create(&task).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// GetTasks returns the owner's tasks in no guaranteed order.
func (s *TaskServiceImpl) GetTasks(db *gorm.DB, ownerID uint) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := db.Where("owner_id = ?", ownerID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id, ownerID uint) (models.Task, error) {
	var task models.Task
	err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask applies the present patch fields inside one transaction so
// the read-modify-write pair cannot interleave with a concurrent delete.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id, ownerID uint, patch TaskPatch) (models.Task, error) {
	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Completed != nil {
			updates["completed"] = *patch.Completed
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return err
		}
		// Re-read so the returned record reflects exactly what was stored.
		return tx.First(&task, task.ID).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes the task and returns the deleted record.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id, ownerID uint) (models.Task, error) {
	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		return tx.Delete(&task).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}
