package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/storage"
	"Go_FileStore/utils"

	"github.com/spf13/afero"
)

// ArchiveResult is a built zip archive.
type ArchiveResult struct {
	Path         string `json:"path"`
	DownloadName string `json:"download_name"`
}

// ArchiveService bundles stored files into one zip archive.
type ArchiveService struct {
	paths storage.Paths
	fs    afero.Fs
	files FileStore
	gc    *GarbageCollector
	log   *logging.Logger
}

func newArchiveService(opts Options, gc *GarbageCollector) *ArchiveService {
	return &ArchiveService{
		paths: storage.NewPaths(opts.Config),
		fs:    opts.Fs,
		files: opts.Files,
		gc:    gc,
		log:   logging.With("component", "archive"),
	}
}

// NewArchiveService builds a standalone archive service.
func NewArchiveService(opts Options) *ArchiveService {
	opts = opts.withDefaults()
	return newArchiveService(opts, NewGarbageCollector(opts))
}

// parseRefs splits each "folder/filename" reference. Nested folders
// are not supported.
func parseRefs(refs []string) ([]repo.DisplayRef, error) {
	if len(refs) == 0 {
		return nil, invalidInput("no files given")
	}
	parsed := make([]repo.DisplayRef, 0, len(refs))
	for _, ref := range refs {
		parts := strings.Split(ref, "/")
		if len(parts) != 2 {
			return nil, invalidInput("nested folders are not supported: " + ref)
		}
		parsed = append(parsed, repo.DisplayRef{Folder: parts[0], Filename: parts[1]})
	}
	return parsed, nil
}

// collisionName renames name to "stem (n).ext".
func collisionName(name string, n int) string {
	ext := utils.Extension(name)
	if ext == "" {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	return fmt.Sprintf("%s (%d).%s", strings.TrimSuffix(name, "."+ext), n, ext)
}

// BuildArchive writes the referenced files into a new zip under the
// zip root. Files missing on disk are skipped. A global sweep runs
// once the archive is closed.
func (s *ArchiveService) BuildArchive(ctx context.Context, refs []string) (*ArchiveResult, error) {
	parsed, err := parseRefs(refs)
	if err != nil {
		return nil, err
	}
	files, err := s.files.FindByDisplayRefs(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, notFound("no files match the given references")
	}

	name := utils.GetToken() + ".zip"
	zipPath := s.paths.Compose(storage.ZipPath, "", name)
	if err := s.fs.MkdirAll(s.paths.Root(storage.ZipPath), 0o755); err != nil {
		return nil, ioFailure("create zip folder failed", err)
	}
	out, err := s.fs.OpenFile(zipPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, ioFailure("create archive failed", err)
	}

	zw := zip.NewWriter(out)
	used := make(map[string]struct{}, len(files))
	collisions := 0
	added := 0
	for i := range files {
		file := &files[i]
		src, err := s.fs.Open(s.paths.Compose(storage.SavePath, file.Folder, file.Filename))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.log.Warn("skip unreadable file", "file_id", file.ID, "err", err)
			}
			continue
		}

		entry := utils.SanitizeFilename(file.OriginalFilename)
		base := entry
		for {
			if _, taken := used[entry]; !taken {
				break
			}
			entry = collisionName(base, collisions)
			collisions++
		}
		used[entry] = struct{}{}

		err = addEntry(zw, entry, src)
		_ = src.Close()
		if err != nil {
			_ = zw.Close()
			_ = out.Close()
			_ = s.fs.Remove(zipPath)
			return nil, ioFailure("write archive failed", err)
		}
		added++
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()
		_ = s.fs.Remove(zipPath)
		return nil, ioFailure("close archive failed", err)
	}
	if err := out.Close(); err != nil {
		_ = s.fs.Remove(zipPath)
		return nil, ioFailure("close archive failed", err)
	}
	s.log.Info("archive built", "name", name, "files", added, "requested", len(refs))

	s.gc.Sweep(ctx)
	return &ArchiveResult{Path: zipPath, DownloadName: name}, nil
}

func addEntry(zw *zip.Writer, name string, src afero.File) error {
	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	if stat, err := src.Stat(); err == nil {
		header.Modified = stat.ModTime()
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
