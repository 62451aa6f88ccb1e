// Package email sends transactional messages through Postmark, or writes
// them to disk during local development.
package email

import (
	"context"
	"errors"

	"github.com/dmitrymomot/authkit/pkg/validator"
)

// EmailSender represents an interface for sending emails.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
	ReplyTo  string `json:"reply_to,omitempty"`
}

// Validate checks the recipient address and that subject and body are present.
func (p SendEmailParams) Validate() error {
	if err := validator.Apply(
		validator.ValidEmail("send_to", p.SendTo),
		validator.RequiredString("subject", p.Subject),
		validator.RequiredString("body_html", p.BodyHTML),
		validator.When(p.ReplyTo != "", validator.ValidEmail("reply_to", p.ReplyTo)),
	); err != nil {
		return errors.Join(ErrInvalidParams, err)
	}
	return nil
}
