package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
)

type fakeUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	lastLogin     map[string]time.Time
	createErr     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		lastLogin:     make(map[string]time.Time),
	}
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) CreateWithProfile(_ context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	f.lastLogin[id] = ts
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, t := range f.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "englify-test",
	})
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, email, password string, role models.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestRegisterIssuesTokens(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correcthorse",
		PasswordConfirm: "correcthorse",
		UserType:        models.RoleStudent,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Tokens.Access)
	assert.NotEmpty(t, resp.Tokens.Refresh)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.Len(t, repo.users, 1)
	assert.Len(t, repo.refreshTokens, 1)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "correcthorse",
		PasswordConfirm: "correcthorse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correcthorse",
		PasswordConfirm: "wronghorse",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.users)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "pw123456", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:        "alice",
		Email:           "other@example.com",
		Password:        "correcthorse",
		PasswordConfirm: "correcthorse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "pw123456", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:        "alice2",
		Email:           "alice@example.com",
		Password:        "correcthorse",
		PasswordConfirm: "correcthorse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correcthorse",
		PasswordConfirm: "correcthorse",
		UserType:        models.UserRole("superuser"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginWithUsername(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleTeacher, true)
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tokens.Access)
	assert.Contains(t, repo.lastLogin, "user-alice")
}

func TestLoginWithEmailIdentifier(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice@example.com",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestLoginEmailFallsBackToUsername(t *testing.T) {
	repo := newFakeUserRepo()
	// Username that happens to contain an '@' but matches no email.
	seedUser(t, repo, "odd@name", "odd@example.com", "correcthorse", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "odd@name",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.Equal(t, "odd@name", resp.User.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "wronghorse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "nobody",
		Password: "whatever1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, false)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "correcthorse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "correcthorse",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		Refresh: login.Tokens.Refresh,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.Refresh, refreshed.Tokens.Refresh)

	// The used token must be revoked and unusable.
	used := repo.refreshTokens[login.Tokens.Refresh]
	assert.True(t, used.Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		Refresh: login.Tokens.Refresh,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, true)
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "tok-1",
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := newTestAuthService(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{Refresh: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "correcthorse",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.Tokens.Refresh, "user-alice", "", "")
	require.NoError(t, err)
	assert.True(t, repo.refreshTokens[login.Tokens.Refresh].Revoked)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "alice", "alice@example.com", "correcthorse", models.RoleStudent, true)
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "correcthorse",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.Tokens.Refresh, "user-mallory", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)

	otherSvc := NewAuthService(newFakeUserRepo(), nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Minute,
	})
	token, err := otherSvc.generateAccessToken(&models.User{ID: "u1", Username: "x", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}
