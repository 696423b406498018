package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/auth"
	"github.com/samcwaters/recipe-app-api/internal/model"
	"github.com/samcwaters/recipe-app-api/internal/repository"
)

const (
	MinPasswordLength = 5
	MaxNameLength     = 255
	MaxEmailLength    = 255
)

const msgBadCredentials = "Unable to authenticate with provided credentials."

// UserService handles registration, token issuance and profile updates.
//
//	UserHandler (HTTP) → UserService → UserRepository (DB)
//	                                 ↘ PasswordService (bcrypt)
//	                                 ↘ TokenService (JWT)
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// ProfileInput is a profile update. nil fields are left unchanged.
type ProfileInput struct {
	Email    *string
	Name     *string
	Password *string
}

// Register validates the payload, hashes the password and stores a new
// active user.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	var fe apperror.FieldErrors

	email = validateEmail(&fe, email)
	validatePassword(&fe, password)
	name = validateName(&fe, name)

	if err := fe.Err(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "user with this email already exists.")
		}
		return nil, fmt.Errorf("service/user: creating user: %w", err)
	}
	usersRegistered.Inc()

	s.logger.Info("user registered", slog.Int64("userID", user.ID))

	return user, nil
}

// Authenticate checks credentials and issues a token. Unknown email, wrong
// password and inactive account all produce the same validation error so
// the response doesn't reveal which emails are registered.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	var fe apperror.FieldErrors
	email = normalizeEmail(email)
	if email == "" {
		fe.Add("email", msgRequired)
	}
	if password == "" {
		fe.Add("password", msgRequired)
	}
	if err := fe.Err(); err != nil {
		return "", err
	}

	badCredentials := apperror.Invalid(apperror.FieldErrors{
		apperror.NonFieldErrors: {msgBadCredentials},
	})

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			tokensIssued.WithLabelValues("rejected").Inc()
			return "", badCredentials
		}
		return "", fmt.Errorf("service/user: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			tokensIssued.WithLabelValues("rejected").Inc()
			return "", badCredentials
		}
		return "", fmt.Errorf("service/user: verifying password: %w", err)
	}
	if !user.IsActive {
		tokensIssued.WithLabelValues("rejected").Inc()
		return "", badCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/user: generating token for user %d: %w", user.ID, err)
	}
	tokensIssued.WithLabelValues("issued").Inc()

	s.logger.Info("token issued",
		slog.Int64("userID", user.ID),
		slog.Duration("ttl", s.tokens.TTL()),
	)

	return token, nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies in to the user's own account. A new password is
// re-hashed; it is never stored as given.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fe apperror.FieldErrors
	var email, name string
	if in.Email != nil {
		email = validateEmail(&fe, *in.Email)
	}
	if in.Name != nil {
		name = validateName(&fe, *in.Name)
	}
	if in.Password != nil {
		validatePassword(&fe, *in.Password)
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if in.Email != nil {
		user.Email = email
	}
	if in.Name != nil {
		user.Name = name
	}
	if in.Password != nil {
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("service/user: hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "user with this email already exists.")
		}
		return nil, fmt.Errorf("service/user: updating user %d: %w", id, err)
	}

	s.logger.Info("user profile updated",
		slog.Int64("userID", user.ID),
		slog.Bool("passwordChanged", in.Password != nil),
	)

	return user, nil
}

// DeleteByEmail removes a user and every recipe they own.
func (s *UserService) DeleteByEmail(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("service/user: deleting user %d: %w", user.ID, err)
	}

	s.logger.Info("user deleted", slog.Int64("userID", user.ID))
	return nil
}

// normalizeEmail trims whitespace and lower-cases the domain part. The local
// part is left alone; some mail servers treat it case-sensitively.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func validateEmail(fe *apperror.FieldErrors, email string) string {
	email = normalizeEmail(email)
	switch {
	case email == "":
		fe.Add("email", msgRequired)
	case len(email) > MaxEmailLength:
		fe.Add("email", msgMaxLength(MaxEmailLength))
	default:
		// Reject display-name forms like "Bob <bob@example.com>".
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			fe.Add("email", "Enter a valid email address.")
		}
	}
	return email
}

func validatePassword(fe *apperror.FieldErrors, password string) {
	switch {
	case password == "":
		fe.Add("password", msgRequired)
	case utf8.RuneCountInString(password) < MinPasswordLength:
		fe.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength))
	case len(password) > auth.MaxPasswordBytes:
		fe.Add("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", auth.MaxPasswordBytes))
	}
}

func validateName(fe *apperror.FieldErrors, name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		fe.Add("name", msgMaxLength(MaxNameLength))
	}
	return name
}
