package userdir

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/mockshop/internal/store"
)

// UserInfo is the account detail exposed to the model
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Directory looks up account details by user id
type Directory interface {
	LookupUser(ctx context.Context, userID int) (UserInfo, error)
}

// ErrUserNotFound is returned when the directory has no such user
var ErrUserNotFound = errors.New("user not found")

// StoreDirectory reads users straight from a Store
type StoreDirectory struct {
	store store.Store
}

// NewStoreDirectory creates a directory backed by st
func NewStoreDirectory(st store.Store) *StoreDirectory {
	return &StoreDirectory{store: st}
}

func (d *StoreDirectory) LookupUser(ctx context.Context, userID int) (UserInfo, error) {
	u, err := d.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return UserInfo{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return UserInfo{}, err
	}
	return UserInfo{Username: u.Username, Email: u.Email}, nil
}
