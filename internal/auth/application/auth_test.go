package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/auth/domain"
	"golang.org/x/crypto/bcrypt"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*domain.Account
}

func (m *memAccounts) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return domain.ErrEmailTaken
		}
	}
	m.byID[a.ID] = a
	return nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]*domain.AuthSession
}

func (m *memSessions) Save(_ context.Context, s *domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*domain.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type recordingPublisher struct{ topics []string }

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.topics = append(p.topics, topic)
	return nil
}

func newServices() (*AuthCommandService, *AuthQueryService, *memSessions, *recordingPublisher) {
	sessions := &memSessions{byID: map[string]*domain.AuthSession{}}
	tokens := NewTokenIssuer("test-secret", "musicstore")
	pub := &recordingPublisher{}
	cmd := NewAuthCommandService(&memAccounts{byID: map[string]*domain.Account{}}, sessions, tokens, pub, bcrypt.MinCost, time.Hour)
	return cmd, NewAuthQueryService(sessions, tokens), sessions, pub
}

func TestRegisterLoginResolveLogout(t *testing.T) {
	cmd, query, sessions, pub := newServices()
	ctx := context.Background()

	account, err := cmd.Register(ctx, RegisterCommand{Email: " Taro@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "taro@example.com", account.Email)
	assert.NotEqual(t, "password1", account.PasswordHash)

	res, err := cmd.Login(ctx, LoginCommand{Email: "TARO@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, account.ID, res.UserID)
	assert.Len(t, sessions.byID, 1)

	identity, err := query.Resolve(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, account.ID, identity.UserID)
	assert.Equal(t, "taro@example.com", identity.Email)

	require.NoError(t, cmd.Logout(ctx, res.Token))
	identity, err = query.Resolve(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, identity)

	assert.Equal(t, []string{domain.TopicUserRegistered, domain.TopicUserLoggedIn}, pub.topics)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	cmd, _, _, _ := newServices()
	ctx := context.Background()

	_, err := cmd.Register(ctx, RegisterCommand{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = cmd.Register(ctx, RegisterCommand{Email: "A@example.com", Password: "password2"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegisterWeakPassword(t *testing.T) {
	cmd, _, _, _ := newServices()
	_, err := cmd.Register(context.Background(), RegisterCommand{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestLoginWrongPasswordOrUnknownEmail(t *testing.T) {
	cmd, _, _, _ := newServices()
	ctx := context.Background()
	_, err := cmd.Register(ctx, RegisterCommand{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = cmd.Login(ctx, LoginCommand{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = cmd.Login(ctx, LoginCommand{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestResolveRejectsForgedAndExpiredTokens(t *testing.T) {
	cmd, query, _, _ := newServices()
	ctx := context.Background()
	_, err := cmd.Register(ctx, RegisterCommand{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	res, err := cmd.Login(ctx, LoginCommand{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	forged, err := NewTokenIssuer("other-secret", "musicstore").Issue(res.UserID, "sid", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	identity, err := query.Resolve(ctx, forged)
	require.NoError(t, err)
	assert.Nil(t, identity)

	identity, err = query.Resolve(ctx, "not-a-jwt")
	require.NoError(t, err)
	assert.Nil(t, identity)

	query.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	identity, err = query.Resolve(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestTokenIssuerRejectsNoneAlgorithm(t *testing.T) {
	issuer := NewTokenIssuer("secret", "musicstore")
	_, err := issuer.Parse("eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1MSIsImp0aSI6InMxIn0.")
	assert.Error(t, err)
}
