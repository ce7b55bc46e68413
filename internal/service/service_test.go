package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/quotation-service/internal/auth"
	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/Dan9191/quotation-service/internal/repository"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu        sync.Mutex
	users     []models.User
	inserts   int
	findErr   error
	insertErr error
}

func (m *memUsers) FindUsers(_ context.Context, email, username string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []models.User
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) InsertUser(_ context.Context, username, email, hash, role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserts++
	id := int64(len(m.users) + 1)
	m.users = append(m.users, models.User{ID: id, Username: username, Email: email, PasswordHash: hash, Role: role})
	return id, nil
}

func (m *memUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("entropy exhausted") }
func (brokenHasher) Compare(string, string) (bool, error) {
	return false, errs.Internal("failed to verify password", errors.New("bad hash"))
}

type chanNotifier chan string

func (c chanNotifier) SendWelcome(to, _ string) error {
	c <- to
	return nil
}

func newTestService(t *testing.T, users UserStore) (*Service, *auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: "test-secret", ExpiresIn: time.Hour})
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	return NewService(users, &memQuotes{}, auth.NewBcryptHasher(bcrypt.MinCost), tokens, log), tokens
}

func TestRegister_TokenMatchesStoredUser(t *testing.T) {
	users := &memUsers{}
	svc, tokens := newTestService(t, users)

	res, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, res.User.Role)
	require.Len(t, users.users, 1)

	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, users.users[0].Public(), claims.Identity())
	assert.Equal(t, res.User, claims.Identity())

	assert.NotEqual(t, "secret1", users.users[0].PasswordHash)
	ok, err := auth.NewBcryptHasher(bcrypt.MinCost).Compare(users.users[0].PasswordHash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		msg  string
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "secret1"}, "Username, email, and password are required"},
		{"missing email", RegisterInput{Username: "alice", Password: "secret1"}, "Username, email, and password are required"},
		{"missing password", RegisterInput{Username: "alice", Email: "a@x.com"}, "Username, email, and password are required"},
		{"no at sign", RegisterInput{Username: "alice", Email: "ax.com", Password: "secret1"}, "Invalid email format"},
		{"no tld", RegisterInput{Username: "alice", Email: "a@x", Password: "secret1"}, "Invalid email format"},
		{"whitespace", RegisterInput{Username: "alice", Email: "a b@x.com", Password: "secret1"}, "Invalid email format"},
		{"bad email beats short password", RegisterInput{Username: "alice", Email: "bad", Password: "1"}, "Invalid email format"},
		{"short password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "12345"}, "Password must be at least 6 characters long"},
		{"missing field beats bad email", RegisterInput{Email: "bad", Password: "1"}, "Username, email, and password are required"},
		{"password over bcrypt limit", RegisterInput{Username: "alice", Email: "a@x.com", Password: strings.Repeat("a", MaxPasswordBytes+1)}, "Password must be at most 72 bytes long"},
		{"multibyte password over bcrypt limit", RegisterInput{Username: "alice", Email: "a@x.com", Password: strings.Repeat("я", 37)}, "Password must be at most 72 bytes long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &memUsers{}
			svc, _ := newTestService(t, users)

			_, err := svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
			assert.Equal(t, tt.msg, errs.PublicMessage(err))
			assert.Zero(t, users.inserts)
		})
	}
}

func TestRegister_PasswordLengthCountsCharacters(t *testing.T) {
	svc, _ := newTestService(t, &memUsers{})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "jo", Email: "j@x.com", Password: "пароль"})
	assert.NoError(t, err)
}

func TestRegister_PasswordAtBcryptLimit(t *testing.T) {
	users := &memUsers{}
	svc, _ := newTestService(t, users)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "jo", Email: "j@x.com", Password: strings.Repeat("a", MaxPasswordBytes)})
	require.NoError(t, err)
	assert.Equal(t, 1, users.inserts)
}

func TestRegister_Duplicate(t *testing.T) {
	users := &memUsers{}
	svc, _ := newTestService(t, users)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	for _, in := range []RegisterInput{
		{Username: "alice2", Email: "a@x.com", Password: "secret1"},
		{Username: "alice", Email: "other@x.com", Password: "secret1"},
	} {
		_, err = svc.Register(ctx, in)
		require.Error(t, err)
		assert.Equal(t, errs.KindConflict, errs.KindOf(err))
		assert.Equal(t, "User with this email or username already exists", errs.PublicMessage(err))
	}
	assert.Equal(t, 1, users.inserts)
}

func TestRegister_InsertLosesRace(t *testing.T) {
	svc, _ := newTestService(t, &memUsers{insertErr: repository.ErrDuplicate})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestRegister_RoleCoercion(t *testing.T) {
	tests := []struct{ requested, want string }{
		{"admin", models.RoleAdmin},
		{"user", models.RoleUser},
		{"", models.RoleUser},
		{"superuser", models.RoleUser},
		{"Admin", models.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			users := &memUsers{}
			svc, _ := newTestService(t, users)

			res, err := svc.Register(context.Background(), RegisterInput{Username: "u", Email: "u@x.com", Password: "secret1", Role: tt.requested})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.User.Role)
			assert.Equal(t, tt.want, users.users[0].Role)
		})
	}
}

func TestRegister_InternalErrors(t *testing.T) {
	t.Run("store lookup", func(t *testing.T) {
		users := &memUsers{findErr: errors.New("connection reset")}
		svc, _ := newTestService(t, users)

		_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "secret1"})
		assert.Equal(t, errs.KindInternal, errs.KindOf(err))
		assert.Equal(t, "Internal server error", errs.PublicMessage(err))
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("hasher", func(t *testing.T) {
		users := &memUsers{}
		svc, _ := newTestService(t, users)
		svc.hasher = brokenHasher{}

		_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "secret1"})
		assert.Equal(t, errs.KindInternal, errs.KindOf(err))
		assert.Zero(t, users.inserts)
	})
}

func TestRegister_SendsWelcome(t *testing.T) {
	svc, _ := newTestService(t, &memUsers{})
	sent := make(chanNotifier, 1)
	svc.SetNotifier(sent)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	select {
	case to := <-sent:
		assert.Equal(t, "a@x.com", to)
	case <-time.After(time.Second):
		t.Fatal("welcome mail not sent")
	}
}

func TestDrainMail(t *testing.T) {
	svc, _ := newTestService(t, &memUsers{})
	sent := make(chanNotifier)
	svc.SetNotifier(sent)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	// the send is blocked on the unbuffered channel
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.DrainMail(ctx), context.DeadlineExceeded)

	assert.Equal(t, "a@x.com", <-sent)
	assert.NoError(t, svc.DrainMail(context.Background()))
}

func TestLogin(t *testing.T) {
	users := &memUsers{}
	svc, tokens := newTestService(t, users)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1", Role: "admin"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "alice", res.User.Username)
		assert.Equal(t, models.RoleAdmin, res.User.Role)

		claims, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User, claims.Identity())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "a@x.com"})
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		assert.Equal(t, "Email and password are required", errs.PublicMessage(err))
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, wrong := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "wrong"})
		_, unknown := svc.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "secret1"})

		require.Error(t, wrong)
		require.Error(t, unknown)
		assert.Equal(t, errs.KindAuthentication, errs.KindOf(wrong))
		assert.Equal(t, wrong.Error(), unknown.Error())
		assert.Equal(t, "Invalid email or password", errs.PublicMessage(unknown))
	})

	t.Run("hash verification failure is internal", func(t *testing.T) {
		svc2, _ := newTestService(t, users)
		svc2.hasher = brokenHasher{}

		_, err := svc2.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
		assert.Equal(t, errs.KindInternal, errs.KindOf(err))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		svc2, _ := newTestService(t, &memUsers{findErr: errors.New("timeout")})

		_, err := svc2.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
		assert.Equal(t, errs.KindInternal, errs.KindOf(err))
	})
}
