package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/auth"
	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/storage"
)

const (
	minUsernameLength = 4
	minPasswordLength = 6
)

// Authenticate checks the credentials and issues a bearer token.
func (s *Service) Authenticate(ctx context.Context, req models.LoginRequest) Response[*models.LoginResponse] {
	fields := logrus.Fields{"username": req.Username}

	return run(s, "authenticate", fields, http.StatusOK, "Login successful", func() (*models.LoginResponse, error) {
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			return nil, fail(KindValidation, "Username and password are required")
		}

		user, err := s.storage.FindUserByUsername(ctx, req.Username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fail(KindNotFound, "This account does not exist!")
			}
			return nil, fmt.Errorf("find user: %w", err)
		}

		if !auth.CheckPassword(user.PasswordHash, req.Password) {
			return nil, fail(KindAuth, "Incorrect username and password")
		}

		token, expiry, err := s.codec.Issue(user.Context())
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}

		return &models.LoginResponse{
			Token:  "Bearer " + token,
			Expiry: expiry.Unix(),
			User:   user.Context(),
		}, nil
	})
}

// Register creates an account. The username is unique regardless of case.
func (s *Service) Register(ctx context.Context, req models.CreateUserRequest) Response[*models.UserContext] {
	fields := logrus.Fields{"username": req.Username, "name": req.Name}

	return run(s, "register", fields, http.StatusCreated, "Account created successfully", func() (*models.UserContext, error) {
		if err := validateCreateUser(req); err != nil {
			return nil, err
		}

		exists, err := s.storage.UserExistsByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			return nil, fail(KindConflict, "Username has already been chosen")
		}

		if req.Password != req.ConfirmPassword {
			return nil, fail(KindValidation, "Passwords don't match")
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}

		user := models.User{
			ID:           s.newID(),
			Name:         strings.TrimSpace(req.Name),
			Username:     strings.TrimSpace(req.Username),
			PasswordHash: hash,
			CreatedAt:    s.now(),
		}

		rows, err := s.storage.InsertUser(ctx, user)
		if err != nil {
			if errors.Is(err, storage.ErrUsernameTaken) {
				return nil, fail(KindConflict, "Username has already been chosen")
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		if rows < 1 {
			return nil, dependencyFailure(errors.New("insert user affected no rows"))
		}

		view := user.Context()
		return &view, nil
	})
}

// Profile returns the stored account of the caller.
func (s *Service) Profile(ctx context.Context, caller models.UserContext) Response[*models.UserContext] {
	fields := logrus.Fields{"username": caller.Username}

	return run(s, "profile", fields, http.StatusOK, "Retrieved successfully", func() (*models.UserContext, error) {
		user, err := s.storage.FindUserByUsername(ctx, caller.Username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fail(KindNotFound, "User not found")
			}
			return nil, fmt.Errorf("find user: %w", err)
		}
		view := user.Context()
		return &view, nil
	})
}

func validateCreateUser(req models.CreateUserRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fail(KindValidation, "Name is required")
	case strings.TrimSpace(req.Username) == "":
		return fail(KindValidation, "Username is required")
	case len([]rune(strings.TrimSpace(req.Username))) < minUsernameLength:
		return fail(KindValidation, fmt.Sprintf("Username must be at least %d characters long", minUsernameLength))
	case req.Password == "":
		return fail(KindValidation, "Password is required")
	case len([]rune(req.Password)) < minPasswordLength:
		return fail(KindValidation, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	case req.ConfirmPassword == "":
		return fail(KindValidation, "Confirm password is required")
	}
	return nil
}
