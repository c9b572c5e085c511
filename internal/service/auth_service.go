package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go-task-manager/internal/model"
	"go-task-manager/internal/util"
	"go-task-manager/pkg/apierror"
)

const (
	maxUsernameLength = 50
	maxEmailLength    = 100
	maxClientIPLength = 64
)

type userStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type auditLogger interface {
	Log(ctx context.Context, entry model.AuditEntry) error
}

type tokenCodec interface {
	Issue(identity model.Identity) (string, error)
	Parse(raw string) (model.Claims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, digest string) bool
}

type authRecorder interface {
	RecordAuthEvent(action string, outcome string)
}

type AuthService struct {
	users   userStore
	audit   auditLogger
	codec   tokenCodec
	hasher  PasswordHasher
	metrics authRecorder
	now     func() time.Time

	// dummyDigest is compared against when the username is unknown so both
	// login failure paths pay for one hash comparison.
	dummyDigest string
}

func NewAuthService(users userStore, audit auditLogger, codec tokenCodec, hasher PasswordHasher, metrics authRecorder) (*AuthService, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}

	return &AuthService{
		users:       users,
		audit:       audit,
		codec:       codec,
		hasher:      hasher,
		metrics:     metrics,
		now:         time.Now,
		dummyDigest: dummy,
	}, nil
}

func invalidCredentials() *apierror.APIError {
	return apierror.New("INVALID_CREDENTIALS", "Invalid credentials", "", http.StatusUnauthorized)
}

func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (model.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateRegistration(username, email, password); err != nil {
		s.record("register", "invalid")
		return model.AuthResult{}, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return model.AuthResult{}, err
	}

	user, err := s.users.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
	})
	if err != nil {
		s.record("register", "failure")
		return model.AuthResult{}, err
	}

	token, err := s.codec.Issue(model.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return model.AuthResult{}, err
	}

	s.record("register", "success")
	s.writeAudit(ctx, "register", &user.ID, user.Username, "success")

	return model.AuthResult{
		Message: "User registered successfully",
		Token:   token,
		User:    user.Public(),
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (model.AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.record("login", "invalid")
		return model.AuthResult{}, apierror.Validation("username and password are required", "")
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		s.hasher.Verify(password, s.dummyDigest)
		s.loginFailed(ctx, nil, username)
		return model.AuthResult{}, invalidCredentials()
	case err != nil:
		return model.AuthResult{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, &user.ID, username)
		return model.AuthResult{}, invalidCredentials()
	}

	token, err := s.codec.Issue(model.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return model.AuthResult{}, err
	}

	s.record("login", "success")
	s.writeAudit(ctx, "login", &user.ID, user.Username, "success")

	return model.AuthResult{
		Message: "Login successful",
		Token:   token,
		User:    user.Public(),
	}, nil
}

// Verify checks a token without consulting the user store, so tokens of a
// deleted user stay valid until they expire.
func (s *AuthService) Verify(raw string) (model.Claims, error) {
	claims, err := s.codec.Parse(strings.TrimSpace(raw))
	if err != nil {
		s.record("verify", "rejected")
		return model.Claims{}, err
	}

	s.record("verify", "valid")
	return claims, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID *int64, username string) {
	s.record("login", "failure")
	s.writeAudit(ctx, "login", userID, username, "failure")
}

func (s *AuthService) record(action string, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAuthEvent(action, outcome)
	}
}

func (s *AuthService) writeAudit(ctx context.Context, action string, userID *int64, username string, status string) {
	if s.audit == nil {
		return
	}

	if utf8.RuneCountInString(username) > maxUsernameLength {
		username = string([]rune(username)[:maxUsernameLength])
	}

	ip := ClientIPFromContext(ctx)
	if len(ip) > maxClientIPLength {
		ip = ip[:maxClientIPLength]
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: s.now().UTC(),
		UserID:     userID,
		Username:   username,
		IP:         ip,
		Status:     status,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		slog.Warn("audit write failed", "action", action, "error", err)
	}
}

func validateRegistration(username string, email string, password string) error {
	if username == "" || email == "" || password == "" {
		return apierror.Validation("username, email and password are required", "")
	}

	if util.HasHiddenRunes(username) {
		return apierror.Validation("username contains invisible characters", "username")
	}

	if utf8.RuneCountInString(username) > maxUsernameLength {
		return apierror.Validation(fmt.Sprintf("username must be at most %d characters", maxUsernameLength), "username")
	}

	if utf8.RuneCountInString(email) > maxEmailLength {
		return apierror.Validation(fmt.Sprintf("email must be at most %d characters", maxEmailLength), "email")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierror.Validation("email is not a valid address", "email")
	}

	if len(password) > maxPasswordBytes {
		return apierror.Validation(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes), "password")
	}

	return nil
}

type clientIPKey struct{}

// WithClientIP stores the caller address for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
