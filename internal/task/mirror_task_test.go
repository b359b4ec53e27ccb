package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/repo/repotest"
	"Go_FileStore/internal/storage"
	"Go_FileStore/model"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
	putErr      error
	removeErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (s *fakeStore) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts storage.PutOptions) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+object] = data
	s.contentType[bucket+"/"+object] = opts.ContentType
	return nil
}

func (s *fakeStore) StatObject(_ context.Context, bucket, object string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+object]
	if !ok {
		return storage.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return storage.ObjectInfo{ObjectName: object, Size: int64(len(data))}, nil
}

func (s *fakeStore) RemoveObject(_ context.Context, bucket, object string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+object)
	return nil
}

type fakePublisher struct {
	bodies [][]byte
	err    error
}

func (p *fakePublisher) PublishTask(_ context.Context, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

func storedFile() *model.File {
	return &model.File{ID: 42, Folder: "f-1", Filename: "n-1"}
}

func TestEnqueuePutPublishesTask(t *testing.T) {
	ctx := context.Background()
	tasks := repo.NewMirrorTaskRepo(repotest.NewDB(t))
	pub := &fakePublisher{}
	e := NewEnqueuer(tasks, pub, "bucket")

	require.NoError(t, e.EnqueuePut(ctx, storedFile(), "/data/f-1/n-1"))
	require.Len(t, pub.bodies, 1)

	var msg MirrorMessage
	require.NoError(t, json.Unmarshal(pub.bodies[0], &msg))
	assert.Zero(t, msg.Attempt)

	got, err := tasks.Get(ctx, msg.TaskID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.MirrorActionPut, got.Action)
	assert.Equal(t, "bucket", got.Bucket)
	assert.Equal(t, "files/f-1/n-1", got.ObjectName)
	assert.Equal(t, model.TaskStatusPending, got.Status)
}

func TestEnqueuePublishFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	tasks := repo.NewMirrorTaskRepo(repotest.NewDB(t))
	e := NewEnqueuer(tasks, &fakePublisher{err: errors.New("broker down")}, "bucket")

	err := e.EnqueueRemove(ctx, storedFile(), "/data/f-1/n-1")
	require.Error(t, err)

	got, err := tasks.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.TaskStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMsg, "broker down")
}

func newTask(t *testing.T, tasks *repo.MirrorTaskRepo, action, localPath string) *model.MirrorTask {
	t.Helper()
	mt := &model.MirrorTask{FileID: 1, Action: action, Bucket: "bucket", ObjectName: "files/a/b", LocalPath: localPath}
	require.NoError(t, tasks.Create(context.Background(), mt))
	return mt
}

func TestProcessPutUploadsFile(t *testing.T) {
	ctx := context.Background()
	tasks := repo.NewMirrorTaskRepo(repotest.NewDB(t))
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a/b", []byte("plain text body"), 0o644))
	store := newFakeStore()
	mt := newTask(t, tasks, model.MirrorActionPut, "/data/a/b")

	require.NoError(t, ProcessMirrorTask(ctx, tasks, store, fs, mt.ID))
	assert.Equal(t, "plain text body", string(store.objects["bucket/files/a/b"]))
	assert.Equal(t, "text/plain; charset=utf-8", store.contentType["bucket/files/a/b"])

	got, err := tasks.Get(ctx, mt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)

	// completed tasks are not processed again
	store.putErr = errors.New("must not be called")
	require.NoError(t, ProcessMirrorTask(ctx, tasks, store, fs, mt.ID))
}

func TestProcessRemoveIgnoresMissingObject(t *testing.T) {
	ctx := context.Background()
	tasks := repo.NewMirrorTaskRepo(repotest.NewDB(t))
	store := newFakeStore()
	store.removeErr = minio.ErrorResponse{Code: "NoSuchKey"}
	mt := newTask(t, tasks, model.MirrorActionRemove, "")

	require.NoError(t, ProcessMirrorTask(ctx, tasks, store, afero.NewMemMapFs(), mt.ID))
	got, err := tasks.Get(ctx, mt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
}

func TestProcessErrors(t *testing.T) {
	ctx := context.Background()
	tasks := repo.NewMirrorTaskRepo(repotest.NewDB(t))
	fs := afero.NewMemMapFs()
	store := newFakeStore()

	err := ProcessMirrorTask(ctx, tasks, store, fs, 999)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	missing := newTask(t, tasks, model.MirrorActionPut, "/nope")
	err = ProcessMirrorTask(ctx, tasks, store, fs, missing.ID)
	assert.ErrorIs(t, err, afero.ErrFileNotFound)

	odd := newTask(t, tasks, "copy", "")
	err = ProcessMirrorTask(ctx, tasks, store, fs, odd.ID)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
