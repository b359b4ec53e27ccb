package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Go_FileStore/model"

	"gorm.io/gorm"
)

// MirrorTaskRepo tracks mirror replication jobs.
type MirrorTaskRepo struct {
	db *gorm.DB
}

func NewMirrorTaskRepo(db *gorm.DB) *MirrorTaskRepo {
	return &MirrorTaskRepo{db: db}
}

func (r *MirrorTaskRepo) Create(ctx context.Context, task *model.MirrorTask) error {
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create mirror task: %w", err)
	}
	return nil
}

// Get returns the task with id or (nil, nil).
func (r *MirrorTaskRepo) Get(ctx context.Context, id uint64) (*model.MirrorTask, error) {
	var task model.MirrorTask
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mirror task %d: %w", id, err)
	}
	return &task, nil
}

// Claim moves a pending or retrying task to running. It returns false
// when another worker already owns the task or it is finished.
func (r *MirrorTaskRepo) Claim(ctx context.Context, id uint64) (bool, error) {
	startedAt := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.MirrorTask{}).
		Where("id = ? AND status IN ?", id, []string{model.TaskStatusPending, model.TaskStatusRetrying}).
		Updates(map[string]interface{}{
			"status":     model.TaskStatusRunning,
			"started_at": &startedAt,
			"error_msg":  "",
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim mirror task %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *MirrorTaskRepo) MarkCompleted(ctx context.Context, id uint64) error {
	finishedAt := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":      model.TaskStatusCompleted,
		"finished_at": &finishedAt,
	})
}

func (r *MirrorTaskRepo) MarkRetrying(ctx context.Context, id uint64, attempt int, nextRetryAt time.Time, cause error) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        model.TaskStatusRetrying,
		"error_msg":     cause.Error(),
		"retry_count":   attempt,
		"next_retry_at": &nextRetryAt,
	})
}

func (r *MirrorTaskRepo) MarkFailed(ctx context.Context, id uint64, cause error) error {
	finishedAt := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":      model.TaskStatusFailed,
		"error_msg":   cause.Error(),
		"finished_at": &finishedAt,
	})
}

func (r *MirrorTaskRepo) update(ctx context.Context, id uint64, values map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&model.MirrorTask{}).
		Where("id = ?", id).
		Updates(values).Error
	if err != nil {
		return fmt.Errorf("update mirror task %d: %w", id, err)
	}
	return nil
}
