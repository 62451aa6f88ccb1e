package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStorage is an in-process Storage used by tests and local runs.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[string]*User
	now   func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{users: make(map[string]*User), now: time.Now}
}

func (s *MemoryStorage) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return ErrEmailExists
	}
	if s.byEmail(u.Email) != nil {
		return ErrEmailExists
	}
	s.users[u.ID] = clone(u)
	return nil
}

func (s *MemoryStorage) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(u), nil
}

func (s *MemoryStorage) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.byEmail(email); u != nil {
		return clone(u), nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStorage) SetToken(_ context.Context, id, token string) error {
	_, err := s.mutate(id, func(u *User) error {
		u.Token = token
		return nil
	})
	return err
}

func (s *MemoryStorage) SetTokens(_ context.Context, id, token, refreshToken string) error {
	_, err := s.mutate(id, func(u *User) error {
		u.Token, u.RefreshToken = token, refreshToken
		return nil
	})
	return err
}

func (s *MemoryStorage) RotateTokens(_ context.Context, id, current, token, refreshToken string) error {
	_, err := s.mutate(id, func(u *User) error {
		if current == "" || u.RefreshToken != current {
			return ErrTokenMismatch
		}
		u.Token, u.RefreshToken = token, refreshToken
		return nil
	})
	if errors.Is(err, ErrUserNotFound) {
		return ErrTokenMismatch
	}
	return err
}

func (s *MemoryStorage) UpdateProfile(_ context.Context, id string, upd ProfileUpdate) (*User, error) {
	return s.mutate(id, func(u *User) error {
		if upd.Email != nil && *upd.Email != u.Email {
			if other := s.byEmail(*upd.Email); other != nil {
				return ErrEmailExists
			}
			u.Email = *upd.Email
		}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.PasswordHash != nil {
			u.Password = *upd.PasswordHash
		}
		if upd.AvatarURL != nil {
			u.AvatarURL = *upd.AvatarURL
		}
		return nil
	})
}

func (s *MemoryStorage) SetTheme(_ context.Context, id string, theme Theme) (*User, error) {
	return s.mutate(id, func(u *User) error {
		u.Theme = theme
		return nil
	})
}

func (s *MemoryStorage) SetResetToken(_ context.Context, email, code string, expiresAt time.Time) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byEmail(email)
	if u == nil {
		return nil, ErrUserNotFound
	}
	exp := expiresAt
	u.ResetToken, u.ResetTokenExpiration = code, &exp
	u.UpdatedAt = s.now()
	return clone(u), nil
}

func (s *MemoryStorage) ConsumeResetToken(_ context.Context, code string, now time.Time, passwordHash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code == "" {
		return nil, ErrResetTokenInvalid
	}
	for _, u := range s.users {
		if u.ResetToken != code {
			continue
		}
		if u.ResetTokenExpiration == nil || !now.Before(*u.ResetTokenExpiration) {
			return nil, ErrResetTokenInvalid
		}
		u.Password = passwordHash
		u.ResetToken, u.ResetTokenExpiration = "", nil
		u.UpdatedAt = s.now()
		return clone(u), nil
	}
	return nil, ErrResetTokenInvalid
}

// mutate applies fn to the stored record under the write lock.
// The record is left unchanged when fn fails.
func (s *MemoryStorage) mutate(id string, fn func(u *User) error) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	next := clone(stored)
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()
	s.users[id] = next
	return clone(next), nil
}

// byEmail must be called with the lock held.
func (s *MemoryStorage) byEmail(email string) *User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func clone(u *User) *User {
	c := *u
	if u.ResetTokenExpiration != nil {
		exp := *u.ResetTokenExpiration
		c.ResetTokenExpiration = &exp
	}
	return &c
}

var _ Storage = (*MemoryStorage)(nil)
