package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"

	"github.com/jordan-wright/email"
)

// Reporter receives failures that must not abort the operation that hit them.
type Reporter interface {
	Report(ctx context.Context, err error, keyvals ...interface{})
}

// LogReporter writes reported errors to the logger.
type LogReporter struct {
	Logger *logging.Logger
}

// NewLogReporter returns a reporter backed by the process logger.
func NewLogReporter() *LogReporter {
	return &LogReporter{Logger: logging.With("component", "report")}
}

// Report logs err at error level.
func (r *LogReporter) Report(_ context.Context, err error, keyvals ...interface{}) {
	if err == nil {
		return
	}
	kv := append([]interface{}{"err", err}, keyvals...)
	r.Logger.Error("reported failure", kv...)
}

// Sender delivers a prepared mail.
type Sender func(e *email.Email) error

// MailReporter mails reported errors to the operators.
type MailReporter struct {
	cfg  config.SMTPConfig
	send Sender
}

// NewMailReporter builds the reporter; returns nil when SMTP is not configured.
func NewMailReporter(cfg config.SMTPConfig) *MailReporter {
	if !cfg.Configured() {
		return nil
	}
	r := &MailReporter{cfg: cfg}
	r.send = r.deliver
	return r
}

// Report sends one alert mail. Delivery failures are logged only.
func (r *MailReporter) Report(_ context.Context, err error, keyvals ...interface{}) {
	if err == nil {
		return
	}
	e := email.NewEmail()
	e.From = r.cfg.From
	e.To = r.cfg.To
	e.Subject = "[filestore] " + truncate(err.Error(), 80)
	e.Text = []byte(formatBody(err, keyvals))
	if sendErr := r.send(e); sendErr != nil {
		logging.Warn("alert mail failed", "err", sendErr)
	}
}

func (r *MailReporter) deliver(e *email.Email) error {
	addr := r.cfg.Host + ":" + r.cfg.Port
	var auth smtp.Auth
	if r.cfg.User != "" {
		auth = smtp.PlainAuth("", r.cfg.User, r.cfg.Pass, r.cfg.Host)
	}
	if r.cfg.TLS || r.cfg.Port == "465" {
		return e.SendWithTLS(addr, auth, &tls.Config{ServerName: r.cfg.Host})
	}
	return e.Send(addr, auth)
}

func formatBody(err error, keyvals []interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "error: %v\n", err)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, "%v: %v\n", keyvals[i], keyvals[i+1])
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Multi fans a report out to every non-nil reporter.
type Multi []Reporter

// Report forwards to each reporter in order.
func (m Multi) Report(ctx context.Context, err error, keyvals ...interface{}) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, err, keyvals...)
		}
	}
}

// FromConfig returns the log reporter, plus the mail reporter when SMTP is configured.
func FromConfig(cfg config.SMTPConfig) Reporter {
	reporters := Multi{NewLogReporter()}
	if mail := NewMailReporter(cfg); mail != nil {
		reporters = append(reporters, mail)
	}
	return reporters
}
