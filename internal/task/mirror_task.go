package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/storage"
	"Go_FileStore/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

var (
	ErrTaskNotFound  = errors.New("mirror task not found")
	ErrUnknownAction = errors.New("unknown mirror action")
)

// MirrorMessage is the payload sent to the worker.
type MirrorMessage struct {
	TaskID  uint64 `json:"task_id"`
	Attempt int    `json:"attempt"`
}

// Publisher sends a task message to the queue.
type Publisher interface {
	PublishTask(ctx context.Context, body []byte) error
}

// Enqueuer records mirror tasks and publishes them for the worker.
type Enqueuer struct {
	tasks     *repo.MirrorTaskRepo
	publisher Publisher
	bucket    string
}

func NewEnqueuer(tasks *repo.MirrorTaskRepo, publisher Publisher, bucket string) *Enqueuer {
	return &Enqueuer{tasks: tasks, publisher: publisher, bucket: bucket}
}

// EnqueuePut schedules an upload of the stored file to the mirror.
func (e *Enqueuer) EnqueuePut(ctx context.Context, file *model.File, localPath string) error {
	return e.enqueue(ctx, model.MirrorActionPut, file, localPath)
}

// EnqueueRemove schedules deletion of the mirrored copy.
func (e *Enqueuer) EnqueueRemove(ctx context.Context, file *model.File, localPath string) error {
	return e.enqueue(ctx, model.MirrorActionRemove, file, localPath)
}

func (e *Enqueuer) enqueue(ctx context.Context, action string, file *model.File, localPath string) error {
	t := &model.MirrorTask{
		FileID:     file.ID,
		Action:     action,
		Bucket:     e.bucket,
		ObjectName: storage.MirrorObjectName(file.Folder, file.Filename),
		LocalPath:  localPath,
		Status:     model.TaskStatusPending,
	}
	if err := e.tasks.Create(ctx, t); err != nil {
		return err
	}
	body, err := json.Marshal(MirrorMessage{TaskID: t.ID})
	if err != nil {
		e.fail(ctx, t.ID, err)
		return err
	}
	if err := e.publisher.PublishTask(ctx, body); err != nil {
		e.fail(ctx, t.ID, err)
		return fmt.Errorf("publish mirror task %d: %w", t.ID, err)
	}
	return nil
}

func (e *Enqueuer) fail(ctx context.Context, id uint64, cause error) {
	_ = e.tasks.MarkFailed(ctx, id, cause)
}

// ProcessMirrorTask executes a mirror task. A task that is already
// completed or owned by another worker is a no-op.
func ProcessMirrorTask(ctx context.Context, tasks *repo.MirrorTaskRepo, store storage.Store, fs afero.Fs, id uint64) error {
	t, err := tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTaskNotFound
	}
	if t.Status == model.TaskStatusCompleted {
		return nil
	}
	claimed, err := tasks.Claim(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	switch t.Action {
	case model.MirrorActionPut:
		err = putObject(ctx, store, fs, t)
	case model.MirrorActionRemove:
		err = store.RemoveObject(ctx, t.Bucket, t.ObjectName)
		if storage.IsNotFound(err) {
			err = nil
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, t.Action)
	}
	if err != nil {
		return err
	}
	return tasks.MarkCompleted(ctx, id)
}

func putObject(ctx context.Context, store storage.Store, fs afero.Fs, t *model.MirrorTask) error {
	f, err := fs.Open(t.LocalPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.LocalPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", t.LocalPath, err)
	}
	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectReader(f); err == nil {
		contentType = mtype.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", t.LocalPath, err)
	}
	return store.PutObject(ctx, t.Bucket, t.ObjectName, f, stat.Size(), storage.PutOptions{ContentType: contentType})
}
