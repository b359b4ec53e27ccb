package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/report"
	"Go_FileStore/internal/storage"
	"Go_FileStore/model"
	"Go_FileStore/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// FileInfo is the metadata shown for a stored file.
type FileInfo struct {
	Filename  string    `json:"filename"`
	Filesize  string    `json:"filesize"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileLocation points the download path at the bytes of a stored file.
type FileLocation struct {
	FullPath     string
	RealFilename string
	ContentType  string
	Size         int64
	ModTime      time.Time
}

// FileService resolves display coordinates to stored files.
type FileService struct {
	paths    storage.Paths
	fs       afero.Fs
	files    FileStore
	mirror   MirrorEnqueuer
	reporter report.Reporter
	log      *logging.Logger
}

func newFileService(opts Options) *FileService {
	return &FileService{
		paths:    storage.NewPaths(opts.Config),
		fs:       opts.Fs,
		files:    opts.Files,
		mirror:   opts.Mirror,
		reporter: opts.Reporter,
		log:      logging.With("component", "file"),
	}
}

// NewFileService builds a standalone file service.
func NewFileService(opts Options) *FileService {
	return newFileService(opts.withDefaults())
}

func (s *FileService) find(ctx context.Context, folder, filename string) (*model.File, error) {
	file, err := s.files.FindByDisplay(ctx, folder, filename)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, notFound("file not found")
	}
	return file, nil
}

func (s *FileService) storedPath(file *model.File) string {
	return s.paths.Compose(storage.SavePath, file.Folder, file.Filename)
}

// DeleteFile removes the bytes of folder/filename, then soft deletes
// its record. It returns the number of records affected.
func (s *FileService) DeleteFile(ctx context.Context, folder, filename string) (int64, error) {
	file, err := s.find(ctx, folder, filename)
	if err != nil {
		return 0, err
	}

	fullPath := s.storedPath(file)
	if err := s.fs.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ioFailure("stored file is missing", err)
		}
		return 0, ioFailure("remove file failed", err)
	}
	removeIfEmpty(s.fs, s.paths.Compose(storage.SavePath, file.Folder, ""))

	affected, err := s.files.SoftDelete(ctx, file.ID)
	if err != nil {
		return 0, err
	}
	s.log.Info("file deleted", "file_id", file.ID, "path", file.PublicPath())

	if err := s.mirror.EnqueueRemove(ctx, file, fullPath); err != nil {
		s.reporter.Report(ctx, fmt.Errorf("enqueue mirror remove: %w", err), "file_id", file.ID)
	}
	return affected, nil
}

// GetFileInfo returns the name, human readable size and timestamps.
func (s *FileService) GetFileInfo(ctx context.Context, folder, filename string) (*FileInfo, error) {
	file, err := s.find(ctx, folder, filename)
	if err != nil {
		return nil, err
	}
	stat, err := s.fs.Stat(s.storedPath(file))
	if err != nil {
		return nil, ioFailure("stat file failed", err)
	}
	return &FileInfo{
		Filename:  file.OriginalFilename,
		Filesize:  utils.HumanFileSize(stat.Size()),
		CreatedAt: file.CreatedAt,
		UpdatedAt: file.UpdatedAt,
	}, nil
}

// LocateFile returns where the bytes of folder/filename live and their
// sniffed content type.
func (s *FileService) LocateFile(ctx context.Context, folder, filename string) (*FileLocation, error) {
	file, err := s.find(ctx, folder, filename)
	if err != nil {
		return nil, err
	}
	fullPath := s.storedPath(file)
	f, err := s.fs.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound("stored file is missing")
		}
		return nil, ioFailure("open file failed", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, ioFailure("stat file failed", err)
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioFailure("detect content type failed", err)
	}
	contentType := "application/octet-stream"
	if mtype != nil {
		contentType = mtype.String()
	}
	return &FileLocation{
		FullPath:     fullPath,
		RealFilename: file.OriginalFilename,
		ContentType:  contentType,
		Size:         stat.Size(),
		ModTime:      stat.ModTime(),
	}, nil
}

// Open opens a located file for streaming.
func (s *FileService) Open(loc *FileLocation) (afero.File, error) {
	f, err := s.fs.Open(loc.FullPath)
	if err != nil {
		return nil, ioFailure("open file failed", err)
	}
	return f, nil
}
