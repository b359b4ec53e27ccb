package model

import "time"

// UploadStatus is the lifecycle state of an upload session.
type UploadStatus int

const (
	UploadStatusUploading  UploadStatus = 0
	UploadStatusFinished   UploadStatus = 1
	UploadStatusTerminated UploadStatus = 2
)

// MaxSessionFilenameLength is the size of the file_uploads.filename column.
const MaxSessionFilenameLength = 255

// String returns the status label used in logs.
func (s UploadStatus) String() string {
	switch s {
	case UploadStatusUploading:
		return "uploading"
	case UploadStatusFinished:
		return "finished"
	case UploadStatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// UploadSession correlates the chunk requests sharing one client upload id.
// The temp folder named by Folder belongs to the session until merge.
type UploadSession struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserID uint64 `gorm:"column:user_id;not null;index" json:"user_id"`

	UploadID string `gorm:"column:upload_id;size:36;uniqueIndex;not null" json:"upload_id"`

	Folder   string `gorm:"column:folder;size:36;not null" json:"folder"`
	Filename string `gorm:"column:filename;size:255;not null" json:"filename"`

	Status UploadStatus `gorm:"column:status;not null;default:0" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName returns the database table name.
func (UploadSession) TableName() string {
	return "file_uploads"
}
