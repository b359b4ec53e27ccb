package model

import "time"

const (
	MirrorActionPut    = "put"
	MirrorActionRemove = "remove"

	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusRetrying  = "retrying"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// MirrorTask replicates one stored file to (or removes it from) the object store.
type MirrorTask struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	FileID uint64 `gorm:"column:file_id;index;not null" json:"file_id"`
	Action string `gorm:"column:action;type:varchar(16);not null" json:"action"` // put / remove

	Bucket     string `gorm:"column:bucket;type:varchar(64);not null" json:"bucket"`
	ObjectName string `gorm:"column:object_name;type:varchar(255);not null" json:"object_name"`
	LocalPath  string `gorm:"column:local_path;type:varchar(512);not null" json:"local_path"`

	Status      string     `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	ErrorMsg    string     `gorm:"column:error_msg;type:text" json:"error_msg"`
	RetryCount  int        `gorm:"column:retry_count;default:0" json:"retry_count"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at" json:"next_retry_at"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (MirrorTask) TableName() string {
	return "mirror_task"
}
