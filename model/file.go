package model

import "time"

// MaxOriginalFilenameLength is the size of the original_filename column.
const MaxOriginalFilenameLength = 128

// File is a finalized, downloadable file.
// Folder/Filename locate the bytes under the save root;
// DisplayFolder/OriginalFilename are the only coordinates shown to users.
type File struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserID uint64 `gorm:"column:user_id;not null;index" json:"user_id"`

	Folder   string `gorm:"column:folder;size:36;not null" json:"-"`
	Filename string `gorm:"column:filename;size:128;not null;index" json:"-"`

	DisplayFolder    string `gorm:"column:display_folder;size:64;not null;index:idx_display,priority:1" json:"display_folder"`
	OriginalFilename string `gorm:"column:original_filename;size:128;not null;index:idx_display,priority:2" json:"original_filename"`

	IsValid bool `gorm:"column:is_valid;not null;default:true" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (File) TableName() string {
	return "files"
}

// PublicPath is the user-facing reference of the file.
func (f *File) PublicPath() string {
	return f.DisplayFolder + "/" + f.OriginalFilename
}
