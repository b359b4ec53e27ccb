package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error, _ ...interface{}) {
	r.errs = append(r.errs, err)
}

func smtpConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host: "smtp.example.com",
		Port: "587",
		From: "filestore@example.com",
		To:   []string{"ops@example.com"},
	}
}

func TestNewMailReporterRequiresConfig(t *testing.T) {
	assert.Nil(t, NewMailReporter(config.SMTPConfig{}))
	assert.NotNil(t, NewMailReporter(smtpConfig()))
}

func TestMailReporterBuildsMessage(t *testing.T) {
	r := NewMailReporter(smtpConfig())
	require.NotNil(t, r)
	var sent *email.Email
	r.send = func(e *email.Email) error {
		sent = e
		return nil
	}

	r.Report(context.Background(), errors.New("sweep temp folder failed"), "path", "/tmp/x")

	require.NotNil(t, sent)
	assert.Equal(t, []string{"ops@example.com"}, sent.To)
	assert.Equal(t, "[filestore] sweep temp folder failed", sent.Subject)
	assert.Contains(t, string(sent.Text), "path: /tmp/x")
}

func TestMailReporterIgnoresNil(t *testing.T) {
	r := NewMailReporter(smtpConfig())
	called := false
	r.send = func(*email.Email) error {
		called = true
		return nil
	}
	r.Report(context.Background(), nil)
	assert.False(t, called)
}

func TestLogReporterWritesError(t *testing.T) {
	var buf bytes.Buffer
	r := &LogReporter{Logger: logging.New(&buf, "info")}
	r.Report(context.Background(), errors.New("disk gone"), "kind", "zip")
	assert.Contains(t, buf.String(), "disk gone")
	assert.Contains(t, buf.String(), "kind=zip")
}

func TestMultiSkipsNil(t *testing.T) {
	a := &recordingReporter{}
	b := &recordingReporter{}
	m := Multi{a, nil, b}
	m.Report(context.Background(), errors.New("x"))
	assert.Len(t, a.errs, 1)
	assert.Len(t, b.errs, 1)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, strings.Repeat("a", 5)+"...", truncate(strings.Repeat("a", 10), 5))
}

func TestFromConfigWithoutSMTP(t *testing.T) {
	r := FromConfig(config.SMTPConfig{})
	m, ok := r.(Multi)
	require.True(t, ok)
	assert.Len(t, m, 1)
}
