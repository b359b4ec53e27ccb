package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Go_FileStore/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UploadSessionRepo persists upload sessions in file_uploads.
// Lookups return (nil, nil) when no row matches.
type UploadSessionRepo struct {
	db *gorm.DB
}

func NewUploadSessionRepo(db *gorm.DB) *UploadSessionRepo {
	return &UploadSessionRepo{db: db}
}

// FindByUploadID returns the session for uploadID.
func (r *UploadSessionRepo) FindByUploadID(ctx context.Context, uploadID string) (*model.UploadSession, error) {
	var session model.UploadSession
	err := r.db.WithContext(ctx).Where("upload_id = ?", uploadID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find upload session %s: %w", uploadID, err)
	}
	return &session, nil
}

// FindFinishedByUserAndFilename returns the latest finished, unmerged
// session of userID for filename.
func (r *UploadSessionRepo) FindFinishedByUserAndFilename(ctx context.Context, userID uint64, filename string) (*model.UploadSession, error) {
	var session model.UploadSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND filename = ? AND status = ?", userID, filename, model.UploadStatusFinished).
		Order("updated_at DESC").
		Order("id DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find finished upload of user %d: %w", userID, err)
	}
	return &session, nil
}

// Create inserts session unless a row with the same upload_id exists,
// in which case the existing row is returned.
func (r *UploadSessionRepo) Create(ctx context.Context, session *model.UploadSession) (*model.UploadSession, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "upload_id"}},
			DoNothing: true,
		}).
		Create(session)
	if res.Error != nil {
		return nil, fmt.Errorf("create upload session %s: %w", session.UploadID, res.Error)
	}
	if res.RowsAffected > 0 {
		return session, nil
	}
	existing, err := r.FindByUploadID(ctx, session.UploadID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("create upload session %s: conflicting row vanished", session.UploadID)
	}
	return existing, nil
}

// UpdateStatus sets the status of the session with id.
func (r *UploadSessionRepo) UpdateStatus(ctx context.Context, id uint64, status model.UploadStatus) error {
	err := r.db.WithContext(ctx).
		Model(&model.UploadSession{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("update upload session %d: %w", id, err)
	}
	return nil
}

// Delete removes the session with id and reports how many rows went away.
// Only the first of several concurrent deleters sees 1.
func (r *UploadSessionRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UploadSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete upload session %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// Touch marks the session as active at t.
func (r *UploadSessionRepo) Touch(ctx context.Context, id uint64, t time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.UploadSession{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", t).Error
	if err != nil {
		return fmt.Errorf("touch upload session %d: %w", id, err)
	}
	return nil
}

// FindStale lists sessions not updated since before, oldest first.
func (r *UploadSessionRepo) FindStale(ctx context.Context, before time.Time) ([]model.UploadSession, error) {
	var sessions []model.UploadSession
	err := r.db.WithContext(ctx).
		Where("updated_at <= ?", before).
		Order("updated_at ASC").
		Order("id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("find stale upload sessions: %w", err)
	}
	return sessions, nil
}
