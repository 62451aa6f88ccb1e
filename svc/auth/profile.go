package auth

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/email/templates"
	"github.com/dmitrymomot/authkit/pkg/file"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/pkg/token"
	"github.com/dmitrymomot/authkit/pkg/validator"
	"github.com/dmitrymomot/authkit/svc/user"
)

// ProfileInput lists profile changes. Nil fields stay unchanged.
type ProfileInput struct {
	Name     *string
	Email    *string
	Password *string
	Avatar   *multipart.FileHeader
}

// EditProfile applies the provided fields in a single store update.
// An avatar is staged in the upload dir, then moved to the avatar dir.
func (s *Service) EditProfile(ctx context.Context, userID string, in ProfileInput) (*user.User, error) {
	if _, err := s.Current(ctx, userID); err != nil {
		return nil, err
	}

	var upd user.ProfileUpdate
	var rules []validator.Rule

	if in.Name != nil {
		name := sanitizer.Apply(*in.Name, sanitizer.Trim, sanitizer.NormalizeWhitespace)
		rules = append(rules,
			validator.RequiredString("name", name),
			validator.MaxLenString("name", name, 100),
		)
		upd.Name = &name
	}
	if in.Email != nil {
		addr := sanitizer.NormalizeEmail(*in.Email)
		rules = append(rules, validator.ValidEmail("email", addr))
		upd.Email = &addr
	}
	if in.Password != nil {
		rules = append(rules, passwordRules("password", *in.Password)...)
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	// newAvatar is set only when the upload did not replace an existing file.
	var newAvatar string
	if in.Avatar != nil {
		dst, replaced, err := s.storeAvatar(ctx, userID, in.Avatar)
		if err != nil {
			return nil, err
		}
		if !replaced {
			newAvatar = dst
		}
		ref := s.files.URL(dst)
		upd.AvatarURL = &ref
	}

	u, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		if newAvatar != "" {
			if delErr := s.files.Delete(ctx, newAvatar); delErr != nil {
				s.log.WarnContext(ctx, "failed to remove unused avatar", logger.UserID(userID), logger.Error(delErr))
			}
		}
		switch {
		case errors.Is(err, user.ErrEmailExists):
			return nil, ErrEmailInUse
		case errors.Is(err, user.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.InfoContext(ctx, "profile updated", logger.UserID(u.ID), logger.Event("user.profile_updated"))
	return u, nil
}

// storeAvatar returns the storage path of the stored avatar and whether it
// replaced a file already at that path. The extension comes from the sniffed
// content type, never from the uploaded filename.
func (s *Service) storeAvatar(ctx context.Context, userID string, fh *multipart.FileHeader) (string, bool, error) {
	if err := file.ValidateSize(fh, s.cfg.MaxAvatarSize); err != nil {
		return "", false, errors.Join(ErrInvalidAvatar, err)
	}
	ext, ok := file.ImageExtension(fh)
	if !ok {
		return "", false, ErrInvalidAvatar
	}

	name := avatarStem(fh.Filename) + ext
	tmp := path.Join(s.cfg.UploadTmpDir, s.newID()+ext)
	dst := path.Join(s.cfg.AvatarDir, userID+"_"+name)

	if _, err := s.files.Save(ctx, fh, tmp); err != nil {
		return "", false, fmt.Errorf("stage avatar: %w", err)
	}
	replaced := s.files.Exists(ctx, dst)
	if err := s.files.Move(ctx, tmp, dst); err != nil {
		if delErr := s.files.Delete(ctx, tmp); delErr != nil {
			s.log.WarnContext(ctx, "failed to remove staged avatar", logger.UserID(userID), logger.Error(delErr))
		}
		return "", false, fmt.Errorf("move avatar: %w", err)
	}
	return dst, replaced, nil
}

func avatarStem(filename string) string {
	name := sanitizer.SanitizeFilename(filename)
	stem := strings.TrimRight(strings.TrimSuffix(name, path.Ext(name)), ".")
	if stem == "" {
		return "avatar"
	}
	return stem
}

// ChangeTheme stores the theme and returns it. Unknown values are rejected
// only when Config.ThemeStrict is set.
func (s *Service) ChangeTheme(ctx context.Context, userID, theme string) (user.Theme, error) {
	t := user.Theme(strings.TrimSpace(theme))
	if t == "" || (s.cfg.ThemeStrict && !t.Valid()) {
		return "", ErrInvalidTheme
	}

	u, err := s.users.SetTheme(ctx, userID, t)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("set theme: %w", err)
	}
	return u.Theme, nil
}

// ForgotPassword stores a fresh reset code and emails it to the account owner.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if err := validator.Apply(validator.ValidEmail("email", emailAddr)); err != nil {
		return err
	}

	code, err := token.GenerateCode(token.ResetCodeBytes)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	u, err := s.users.SetResetToken(ctx, emailAddr, code, s.now().Add(s.cfg.ResetCodeTTL))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("store reset code: %w", err)
	}

	body, err := templates.Render(ctx, templates.ResetPassword(code, s.cfg.ResetCodeTTL))
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   u.Email,
		Subject:  "Reset your password",
		BodyHTML: body,
		Tag:      "password-reset",
	}); err != nil {
		s.log.ErrorContext(ctx, "failed to send reset email", logger.UserID(u.ID), logger.Error(err))
		return errors.Join(ErrFailedToSendEmail, err)
	}

	s.log.InfoContext(ctx, "password reset requested", logger.UserID(u.ID), logger.Event("user.password_reset_requested"))
	return nil
}

// ResetPassword replaces the password of the account holding code.
// The code must not have reached its expiration.
func (s *Service) ResetPassword(ctx context.Context, code, newPassword string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrResetTokenInvalid
	}
	if err := validator.Apply(passwordRules("newPassword", newPassword)...); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	u, err := s.users.ConsumeResetToken(ctx, code, s.now(), hash)
	if err != nil {
		if errors.Is(err, user.ErrResetTokenInvalid) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset code: %w", err)
	}

	s.log.InfoContext(ctx, "password reset", logger.UserID(u.ID), logger.Event("user.password_reset"))
	return nil
}

// Help forwards a help request to the support mailbox. Replies go to from.
func (s *Service) Help(ctx context.Context, from, comment string) error {
	from = sanitizer.NormalizeEmail(from)
	comment = strings.TrimSpace(comment)
	if err := validator.Apply(
		validator.ValidEmail("email", from),
		validator.RequiredString("comment", comment),
		validator.MaxLenString("comment", comment, 5000),
	); err != nil {
		return err
	}

	body, err := templates.Render(ctx, templates.HelpRequest(from, comment))
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   s.cfg.SupportEmail,
		Subject:  "Help request from " + from,
		BodyHTML: body,
		Tag:      "help-request",
		ReplyTo:  from,
	}); err != nil {
		s.log.ErrorContext(ctx, "failed to send help request", logger.Email(from), logger.Error(err))
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}
