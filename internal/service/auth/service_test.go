package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smarttaskflow/internal/model"
	"smarttaskflow/internal/repository"
	"smarttaskflow/internal/session"
)

type memUsers struct {
	byEmail  map[string]*model.User
	profiles map[string]*model.Profile
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*model.User{}, profiles: map[string]*model.Profile{}}
}

func (m *memUsers) CreateWithProfile(_ context.Context, u *model.User, name *string) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	u.ID = "user-" + u.Email
	u.CreatedAt = time.Now()
	cp := *u
	m.byEmail[u.Email] = &cp
	m.profiles[u.ID] = &model.Profile{ID: u.ID, Name: name}
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindProfile(_ context.Context, userID string) (*model.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type memRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func (m *memRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.revoked[id] = ttl
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[id]
	return ok, nil
}

func newTestService() (*Service, *memRevoker) {
	rev := &memRevoker{revoked: map[string]time.Duration{}}
	return NewService(newMemUsers(), rev, "test-secret", time.Hour, zap.NewNop()), rev
}

func TestSignUpThenSignIn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	s, err := svc.SignUp(ctx, " Ada@Example.com ", "hunter22", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.NotEmpty(t, s.Token)
	require.NotNil(t, s.Profile)
	assert.Equal(t, "Ada", *s.Profile.Name)

	_, err = svc.SignUp(ctx, "ada@example.com", "another1", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	in, err := svc.SignIn(ctx, "ADA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, in.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), in.ExpiresAt, time.Minute)

	_, err = svc.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SignUp(context.Background(), "ada@example.com", "123", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSessionAndSignOut(t *testing.T) {
	svc, rev := newTestService()
	ctx := context.Background()

	s, err := svc.SignUp(ctx, "ada@example.com", "hunter22", "")
	require.NoError(t, err)

	got, err := svc.Session(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Nil(t, got.Profile.Name)

	require.NoError(t, svc.SignOut(ctx, s.Token))
	require.Len(t, rev.revoked, 1)
	for _, ttl := range rev.revoked {
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 60)
	}

	_, err = svc.Session(ctx, s.Token)
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.ErrorIs(t, svc.SignOut(ctx, s.Token), session.ErrNoSession)
}

func TestSessionRejectsBadTokens(t *testing.T) {
	svc, rev := newTestService()
	ctx := context.Background()

	_, err := svc.Session(ctx, "")
	assert.ErrorIs(t, err, session.ErrNoSession)
	_, err = svc.Session(ctx, "garbage")
	assert.ErrorIs(t, err, session.ErrNoSession)

	other := NewService(newMemUsers(), rev, "other-secret", time.Hour, zap.NewNop())
	s, err := other.SignUp(ctx, "eve@example.com", "hunter22", "")
	require.NoError(t, err)
	_, err = svc.Session(ctx, s.Token)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSessionSurfacesRevokerFailure(t *testing.T) {
	svc, rev := newTestService()
	ctx := context.Background()

	s, err := svc.SignUp(ctx, "ada@example.com", "hunter22", "")
	require.NoError(t, err)

	rev.err = errors.New("redis down")
	_, err = svc.Session(ctx, s.Token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNoSession)
}
