package repo

import (
	"context"
	"errors"
	"fmt"

	"Go_FileStore/model"

	"gorm.io/gorm"
)

// DisplayRef is the user-facing coordinate of a file.
type DisplayRef struct {
	Folder   string
	Filename string
}

// FileRepo persists file records. Soft-deleted rows are invisible to
// every read.
type FileRepo struct {
	db *gorm.DB
}

func NewFileRepo(db *gorm.DB) *FileRepo {
	return &FileRepo{db: db}
}

func valid(db *gorm.DB) *gorm.DB {
	return db.Where("is_valid = ?", true)
}

// Create inserts a new record. The record is always stored valid.
func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	file.IsValid = true
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("create file record: %w", err)
	}
	return nil
}

// FindByDisplay returns the valid record shown as folder/filename.
func (r *FileRepo) FindByDisplay(ctx context.Context, folder, filename string) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Scopes(valid).
		Where("display_folder = ? AND original_filename = ?", folder, filename).
		Order("id").
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find file %s/%s: %w", folder, filename, err)
	}
	return &file, nil
}

// FindByDisplayRefs resolves refs in one query, ordered by id.
func (r *FileRepo) FindByDisplayRefs(ctx context.Context, refs []DisplayRef) ([]model.File, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	cond := r.db.Where("display_folder = ? AND original_filename = ?", refs[0].Folder, refs[0].Filename)
	for _, ref := range refs[1:] {
		cond = cond.Or("display_folder = ? AND original_filename = ?", ref.Folder, ref.Filename)
	}

	var files []model.File
	err := r.db.WithContext(ctx).
		Scopes(valid).
		Where(cond).
		Order("id").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("find files by refs: %w", err)
	}
	return files, nil
}

// SoftDelete marks the record invalid.
func (r *FileRepo) SoftDelete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.File{}).
		Scopes(valid).
		Where("id = ?", id).
		Update("is_valid", false)
	if res.Error != nil {
		return 0, fmt.Errorf("soft delete file %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}
