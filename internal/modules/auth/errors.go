package auth

import (
	"errors"
	"fmt"

	"hotelbooking/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already exists", domain.ErrConflict)
	ErrUserNotFound       = fmt.Errorf("user %w", domain.ErrNotFound)
)
