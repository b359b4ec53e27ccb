package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/report"
	"Go_FileStore/internal/storage"
	"Go_FileStore/model"
	"Go_FileStore/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

const (
	chunkMarker = ".chunked-"
	chunkSuffix = ".tmp"
)

// ChunkUploadInput is one chunk of a multi-request upload.
type ChunkUploadInput struct {
	UserID   uint64
	UploadID string
	Filename string
	Chunk    io.Reader
	Index    int
	IsLast   bool
}

// SingleUploadInput is a whole file sent in one request.
type SingleUploadInput struct {
	UserID   uint64
	UploadID string
	Filename string
	File     io.Reader
}

// UploadResult identifies a newly stored file.
type UploadResult struct {
	ID   uint64 `json:"id"`
	Path string `json:"path"`
}

// UploadService receives chunks, tracks upload sessions and merges
// chunks into stored files.
type UploadService struct {
	cfg      config.FileConfig
	paths    storage.Paths
	fs       afero.Fs
	sessions SessionStore
	files    FileStore
	locker   repo.Locker
	gc       *GarbageCollector
	mirror   MirrorEnqueuer
	reporter report.Reporter
	now      func() time.Time
	log      *logging.Logger
}

func newUploadService(opts Options, gc *GarbageCollector) *UploadService {
	return &UploadService{
		cfg:      opts.Config,
		paths:    storage.NewPaths(opts.Config),
		fs:       opts.Fs,
		sessions: opts.Sessions,
		files:    opts.Files,
		locker:   opts.Locker,
		gc:       gc,
		mirror:   opts.Mirror,
		reporter: opts.Reporter,
		now:      opts.Now,
		log:      logging.With("component", "upload"),
	}
}

// NewUploadService builds a standalone upload service.
func NewUploadService(opts Options) *UploadService {
	opts = opts.withDefaults()
	return newUploadService(opts, NewGarbageCollector(opts))
}

func chunkName(filename string, index int) string {
	return utils.SanitizeFilename(filename) + chunkMarker + strconv.Itoa(index) + chunkSuffix
}

// ChunkUpload stores one chunk in the temp folder of the session,
// creating the session on the first chunk. Resending an index
// overwrites the earlier chunk.
func (s *UploadService) ChunkUpload(ctx context.Context, in ChunkUploadInput) error {
	if strings.TrimSpace(in.UploadID) == "" {
		return invalidInput("upload id is required")
	}
	if in.Index < 0 {
		return invalidInput("chunk index must not be negative")
	}
	if in.Chunk == nil {
		return invalidInput("chunk is required")
	}

	session, err := s.sessions.FindByUploadID(ctx, in.UploadID)
	if err != nil {
		return err
	}
	if session == nil {
		session, err = s.sessions.Create(ctx, &model.UploadSession{
			UserID:   in.UserID,
			UploadID: in.UploadID,
			Folder:   utils.GetToken(),
			Filename: sessionFilename(in.Filename),
			Status:   model.UploadStatusUploading,
		})
		if err != nil {
			return err
		}
	}

	dir := s.paths.Compose(storage.TempPath, session.Folder, "")
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return ioFailure("create temp folder failed", err)
	}
	target := s.paths.Compose(storage.TempPath, session.Folder, chunkName(in.Filename, in.Index))
	n, err := writeFile(s.fs, target, in.Chunk, os.O_TRUNC)
	if err != nil {
		return ioFailure("write chunk failed", err)
	}
	s.log.Debug("chunk stored", "upload_id", in.UploadID, "index", in.Index, "size", humanize.Bytes(uint64(n)))

	if in.IsLast {
		return s.sessions.UpdateStatus(ctx, session.ID, model.UploadStatusFinished)
	}
	// keeps the session clear of the stale session sweep
	return s.sessions.Touch(ctx, session.ID, s.now())
}

// writeFile creates path and copies r into it. mode is O_TRUNC or O_EXCL.
func writeFile(fs afero.Fs, path string, r io.Reader, mode int) (int64, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

// listChunks returns the chunk files of dir in natural order.
func (s *UploadService) listChunks(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	chunks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), chunkSuffix) {
			continue
		}
		chunks = append(chunks, entry.Name())
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunkLess(chunks[i], chunks[j])
	})
	for i, name := range chunks {
		chunks[i] = filepath.Join(dir, name)
	}
	return chunks, nil
}

// chunkIndex extracts N from "{name}.chunked-{N}.tmp".
func chunkIndex(name string) (int, bool) {
	pos := strings.LastIndex(name, chunkMarker)
	if pos < 0 {
		return 0, false
	}
	digits := strings.TrimSuffix(name[pos+len(chunkMarker):], chunkSuffix)
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func chunkLess(a, b string) bool {
	ia, okA := chunkIndex(a)
	ib, okB := chunkIndex(b)
	if okA && okB && ia != ib {
		return ia < ib
	}
	return naturalLess(a, b)
}

// naturalLess compares strings treating digit runs as numbers.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, restA := splitDigits(a)
			nb, restB := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = restA, restB
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// Merge concatenates the chunks of uploadID into a stored file.
func (s *UploadService) Merge(ctx context.Context, uploadID string) (*UploadResult, error) {
	session, err := s.sessions.FindByUploadID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, notFound("upload session not found")
	}

	release, err := s.locker.Acquire(ctx, "merge:"+uploadID)
	if err != nil {
		if errors.Is(err, repo.ErrLockBusy) {
			return nil, mergeInProgress(uploadID)
		}
		return nil, fmt.Errorf("acquire merge lock: %w", err)
	}
	defer release()

	// a merge that held the lock before us may have consumed the session
	session, err = s.sessions.FindByUploadID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, notFound("upload session not found")
	}

	tempDir := s.paths.Compose(storage.TempPath, session.Folder, "")
	chunks, err := s.listChunks(tempDir)
	if err != nil {
		return nil, s.abortMerge(ctx, session, tempDir, "", ioFailure("list chunks failed", err))
	}
	if len(chunks) == 0 {
		return nil, s.abortMerge(ctx, session, tempDir, "", ioFailure("no chunks to merge", nil))
	}

	saveFolder := utils.GetToken()
	finalPath := s.paths.Compose(storage.SavePath, saveFolder, utils.GetToken())
	size, err := s.assemble(chunks, finalPath)
	if err != nil {
		return nil, s.abortMerge(ctx, session, tempDir, finalPath, err)
	}

	file := &model.File{
		UserID:           session.UserID,
		Folder:           saveFolder,
		Filename:         filepath.Base(finalPath),
		DisplayFolder:    utils.GetToken(),
		OriginalFilename: s.originalFilename(session.Filename),
		IsValid:          true,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, s.abortMerge(ctx, session, tempDir, finalPath, err)
	}

	s.gc.SweepPath(ctx, tempDir)
	removeIfEmpty(s.fs, tempDir)

	deleted, err := s.sessions.Delete(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		s.rollbackFile(ctx, file, finalPath)
		return nil, notFound("upload session already merged")
	}

	s.log.Info("upload merged",
		"upload_id", uploadID,
		"chunks", len(chunks),
		"size", humanize.Bytes(uint64(size)),
		"file_id", file.ID,
	)
	s.enqueuePut(ctx, file, finalPath)
	return &UploadResult{ID: file.ID, Path: file.PublicPath()}, nil
}

// assemble moves the first chunk to finalPath and appends the rest in order.
func (s *UploadService) assemble(chunks []string, finalPath string) (int64, error) {
	if err := s.fs.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return 0, ioFailure("create storage folder failed", err)
	}
	if err := s.fs.Rename(chunks[0], finalPath); err != nil {
		return 0, ioFailure("move first chunk failed", err)
	}
	if len(chunks) == 1 {
		info, err := s.fs.Stat(finalPath)
		if err != nil {
			return 0, ioFailure("stat merged file failed", err)
		}
		return info.Size(), nil
	}

	out, err := s.fs.OpenFile(finalPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, ioFailure("open merged file failed", err)
	}
	defer out.Close()

	for _, chunk := range chunks[1:] {
		buf, err := afero.ReadFile(s.fs, chunk)
		if err != nil {
			return 0, ioFailure("read chunk failed", err)
		}
		if _, err := out.Write(buf); err != nil {
			return 0, ioFailure("append chunk failed", err)
		}
	}
	if err := out.Sync(); err != nil {
		return 0, ioFailure("sync merged file failed", err)
	}
	info, err := out.Stat()
	if err != nil {
		return 0, ioFailure("stat merged file failed", err)
	}
	return info.Size(), nil
}

// abortMerge undoes a failed merge and returns cause.
func (s *UploadService) abortMerge(ctx context.Context, session *model.UploadSession, tempDir, finalPath string, cause error) error {
	if finalPath != "" {
		if err := s.fs.Remove(finalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.reporter.Report(ctx, fmt.Errorf("remove partial file: %w", err), "path", finalPath)
		}
		removeIfEmpty(s.fs, filepath.Dir(finalPath))
	}
	s.gc.SweepPath(ctx, tempDir)
	removeIfEmpty(s.fs, tempDir)

	if err := s.sessions.UpdateStatus(ctx, session.ID, model.UploadStatusTerminated); err != nil {
		s.reporter.Report(ctx, err, "upload_id", session.UploadID)
	}
	s.log.Warn("merge aborted", "upload_id", session.UploadID, "err", cause)
	return cause
}

// rollbackFile withdraws a stored file whose session was consumed elsewhere.
func (s *UploadService) rollbackFile(ctx context.Context, file *model.File, finalPath string) {
	if _, err := s.files.SoftDelete(ctx, file.ID); err != nil {
		s.reporter.Report(ctx, fmt.Errorf("withdraw file record: %w", err), "file_id", file.ID)
	}
	s.discard(finalPath)
	s.log.Warn("merge withdrawn, session already consumed", "file_id", file.ID)
}

// originalFilename is the display name. It always fits the
// original_filename column, whatever MaxFilenameLength says.
func (s *UploadService) originalFilename(name string) string {
	limit := s.cfg.MaxFilenameLength
	if limit <= 0 || limit > model.MaxOriginalFilenameLength {
		limit = model.MaxOriginalFilenameLength
	}
	return utils.TrimFilename(utils.SanitizeFilename(name), limit)
}

func sessionFilename(name string) string {
	return utils.TruncateBytes(name, model.MaxSessionFilenameLength)
}

// SingleUpload stores a whole file sent in one request.
func (s *UploadService) SingleUpload(ctx context.Context, in SingleUploadInput) (*UploadResult, error) {
	if strings.TrimSpace(in.UploadID) == "" {
		return nil, invalidInput("upload id is required")
	}
	if in.File == nil {
		return nil, invalidInput("file is required")
	}

	if _, err := s.sessions.Create(ctx, &model.UploadSession{
		UserID:   in.UserID,
		UploadID: in.UploadID,
		Folder:   utils.GetToken(),
		Filename: sessionFilename(in.Filename),
		Status:   model.UploadStatusFinished,
	}); err != nil {
		return nil, err
	}

	saveFolder := utils.GetToken()
	finalPath := s.paths.Compose(storage.SavePath, saveFolder, utils.GetToken())
	if err := s.fs.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return nil, ioFailure("create storage folder failed", err)
	}
	size, err := writeFile(s.fs, finalPath, in.File, os.O_EXCL)
	if err != nil {
		s.discard(finalPath)
		return nil, ioFailure("store file failed", err)
	}

	file := &model.File{
		UserID:           in.UserID,
		Folder:           saveFolder,
		Filename:         filepath.Base(finalPath),
		DisplayFolder:    utils.GetToken(),
		OriginalFilename: s.originalFilename(in.Filename),
		IsValid:          true,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.discard(finalPath)
		return nil, err
	}

	s.log.Info("file stored", "upload_id", in.UploadID, "size", humanize.Bytes(uint64(size)), "file_id", file.ID)
	s.enqueuePut(ctx, file, finalPath)
	return &UploadResult{ID: file.ID, Path: file.PublicPath()}, nil
}

func (s *UploadService) discard(path string) {
	_ = s.fs.Remove(path)
	removeIfEmpty(s.fs, filepath.Dir(path))
}

// removeIfEmpty deletes dir when it has no entries left.
func removeIfEmpty(fs afero.Fs, dir string) bool {
	empty, err := afero.IsEmpty(fs, dir)
	if err != nil || !empty {
		return false
	}
	return fs.Remove(dir) == nil
}

// FindFinishedUpload returns the finished but unmerged session of
// userID for filename, so a client can trigger the merge again.
func (s *UploadService) FindFinishedUpload(ctx context.Context, userID uint64, filename string) (*model.UploadSession, error) {
	session, err := s.sessions.FindFinishedByUserAndFilename(ctx, userID, sessionFilename(filename))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, notFound("no finished upload for " + filename)
	}
	return session, nil
}

func (s *UploadService) enqueuePut(ctx context.Context, file *model.File, localPath string) {
	if err := s.mirror.EnqueuePut(ctx, file, localPath); err != nil {
		s.reporter.Report(ctx, fmt.Errorf("enqueue mirror put: %w", err), "file_id", file.ID)
	}
}
