package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
)

// DevSender writes each message as an .html body plus a .json metadata file.
type DevSender struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

// DevOption configures DevSender.
type DevOption func(*DevSender)

func WithDevLogger(l *slog.Logger) DevOption {
	return func(d *DevSender) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDevSender creates a sender that stores messages under dir, creating it on demand.
func NewDevSender(dir string, opts ...DevOption) *DevSender {
	d := &DevSender{dir: dir, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type devMetadata struct {
	Timestamp string `json:"timestamp"`
	SendTo    string `json:"send_to"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %w", ErrFailedToSendEmail, err)
	}

	now := d.now()
	identifier := params.Tag
	if identifier == "" {
		identifier = params.Subject
	}
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405.000000"),
		strings.ToLower(sanitizer.SanitizeFilename(identifier)))

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: write html: %w", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		Timestamp: now.Format(time.RFC3339),
		SendTo:    params.SendTo,
		ReplyTo:   params.ReplyTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %w", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: write metadata: %w", ErrFailedToSendEmail, err)
	}

	d.log.InfoContext(ctx, "email saved to disk",
		logger.Component("email"),
		slog.String("path", htmlPath),
		slog.String("subject", params.Subject),
	)
	return nil
}
