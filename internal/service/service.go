package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/Dan9191/quotation-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// errInvalidCredentials is shared by "no such user" and "wrong password".
var errInvalidCredentials = errs.Authentication("Invalid email or password")

// UserStore persists user records.
type UserStore interface {
	FindUsers(ctx context.Context, email, username string) ([]models.User, error)
	InsertUser(ctx context.Context, username, email, passwordHash, role string) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(u models.PublicUser) (string, error)
}

// Notifier is told about new accounts.
type Notifier interface {
	SendWelcome(to, username string) error
}

// Service handles business logic
type Service struct {
	users    UserStore
	quotes   QuotationStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	notifier Notifier
	log      *logrus.Logger

	mail sync.WaitGroup
}

// NewService initializes a new service
func NewService(users UserStore, quotes QuotationStore, hasher PasswordHasher, tokens TokenIssuer, log *logrus.Logger) *Service {
	return &Service{users: users, quotes: quotes, hasher: hasher, tokens: tokens, log: log}
}

// SetNotifier enables welcome mails for new accounts.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// RegisterInput is a signup request.
type RegisterInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email_shape"`
	Password string `validate:"required,min=6,bcrypt_max"`
	Role     string `validate:"-"`
}

// LoginInput is a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register validates in, creates the user and returns a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validateInput(in, registerRules); err != nil {
		return nil, err
	}

	existing, err := s.users.FindUsers(ctx, in.Email, in.Username)
	if err != nil {
		return nil, errs.Internal("Database error", err)
	}
	if len(existing) > 0 {
		return nil, errs.Conflict("User with this email or username already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, errs.Internal("Error creating user", err)
	}

	role := models.NormalizeRole(in.Role)
	id, err := s.users.InsertUser(ctx, in.Username, in.Email, hash, role)
	if errors.Is(err, repository.ErrDuplicate) {
		// lost the race against a concurrent signup
		return nil, errs.Conflict("User with this email or username already exists")
	}
	if err != nil {
		return nil, errs.Internal("Error creating user", err)
	}

	user := models.PublicUser{ID: id, Username: in.Username, Email: in.Email, Role: role}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, errs.Internal("Error creating user", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": id, "role": role}).Infof("User registered: %s", user.Email)
	s.welcome(user)
	return &AuthResult{Token: token, User: user}, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validateInput(in, loginRules); err != nil {
		return nil, err
	}

	stored, err := s.users.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, errs.Internal("Database error", err)
	}

	ok, err := s.hasher.Compare(stored.PasswordHash, in.Password)
	if err != nil {
		return nil, errs.Internal("Error verifying credentials", err)
	}
	if !ok {
		return nil, errInvalidCredentials
	}

	user := stored.Public()
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, errs.Internal("Error generating token", err)
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Email)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *Service) welcome(u models.PublicUser) {
	if s.notifier == nil {
		return
	}
	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		if err := s.notifier.SendWelcome(u.Email, u.Username); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("Welcome email not delivered")
		}
	}()
}

// DrainMail waits for in-flight welcome mails or until ctx is done.
func (s *Service) DrainMail(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.mail.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
