package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"Go_FileStore/config"
	"Go_FileStore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	ok       bool
	paths    []string
	sessions int64
	closed   bool
}

func (f *fakeSweeper) Sweep(context.Context) bool { return f.ok }

func (f *fakeSweeper) SweepPath(_ context.Context, p string) bool {
	f.paths = append(f.paths, p)
	return f.ok
}

func (f *fakeSweeper) SweepSessions(context.Context) (int64, bool) { return f.sessions, f.ok }

func run(t *testing.T, f *fakeSweeper, openErr error, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context) (sweeper, func(), error) {
		if openErr != nil {
			return nil, nil, openErr
		}
		return f, func() { f.closed = true }, nil
	}
	cmd := newRootCommand(context.Background(), config.Config{JWTSecret: "s3cret"}, open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGCCommands(t *testing.T) {
	f := &fakeSweeper{ok: true, sessions: 3}

	out, err := run(t, f, nil, "gc", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "sweep complete")
	assert.True(t, f.closed)

	out, err = run(t, f, nil, "gc", "path", "/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/x"}, f.paths)
	assert.Contains(t, out, "cleared /tmp/x")

	out, err = run(t, f, nil, "gc", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 3 sessions")
}

func TestGCCommandFailures(t *testing.T) {
	_, err := run(t, &fakeSweeper{ok: false}, nil, "gc", "sweep")
	assert.ErrorIs(t, err, errIncomplete)

	_, err = run(t, &fakeSweeper{ok: true}, errors.New("no db"), "gc", "sessions")
	assert.EqualError(t, err, "no db")

	_, err = run(t, &fakeSweeper{ok: true}, nil, "gc", "path")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, &fakeSweeper{}, errors.New("must not open"), "token", "--user", "9", "--name", "alice")
	require.NoError(t, err)

	claims, err := utils.VerifyToken("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), claims.UserId)
	assert.Equal(t, "alice", claims.Username)
}
