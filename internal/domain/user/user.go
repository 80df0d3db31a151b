package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("user: not found")
	ErrLineIDRequired = errors.New("user: line id is required")
)

type ID string

// User is a guest identity created from a LINE login profile.
type User struct {
	ID                ID
	LineID            string
	DisplayName       string
	PictureURL        string
	StatusMessage     string
	IsFriend          bool
	FriendshipChanged bool
	PhoneNumber       string
	Email             string
	CreatedAt         time.Time
	LastLoginAt       time.Time
}

// LineProfile is the subset of a LINE login response the site keeps.
type LineProfile struct {
	UserID            string
	DisplayName       string
	PictureURL        string
	StatusMessage     string
	IsFriend          *bool
	FriendshipChanged *bool
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByLineID(ctx context.Context, lineID string) (*User, error)
	Save(ctx context.Context, u *User) error
}

// UpsertFromLine refreshes an existing user from a login profile, or
// builds a new one when existing is nil.
func UpsertFromLine(existing *User, profile LineProfile, newID ID, now time.Time) (*User, error) {
	lineID := strings.TrimSpace(profile.UserID)
	if lineID == "" {
		return nil, ErrLineIDRequired
	}
	now = now.UTC()
	if existing == nil {
		u := &User{
			ID:            newID,
			LineID:        lineID,
			DisplayName:   profile.DisplayName,
			PictureURL:    profile.PictureURL,
			StatusMessage: profile.StatusMessage,
			CreatedAt:     now,
			LastLoginAt:   now,
		}
		if profile.IsFriend != nil {
			u.IsFriend = *profile.IsFriend
		}
		if profile.FriendshipChanged != nil {
			u.FriendshipChanged = *profile.FriendshipChanged
		}
		return u, nil
	}
	existing.DisplayName = profile.DisplayName
	if profile.PictureURL != "" {
		existing.PictureURL = profile.PictureURL
	}
	if profile.IsFriend != nil {
		existing.IsFriend = *profile.IsFriend
	}
	if profile.FriendshipChanged != nil {
		existing.FriendshipChanged = *profile.FriendshipChanged
	}
	existing.LastLoginAt = now
	return existing, nil
}
