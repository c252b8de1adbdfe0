package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/auth"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
	"github.com/phantomcommerce/phantom-backend/pkg/redis"
	"github.com/phantomcommerce/phantom-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

type stubVerifier struct {
	identities map[string]*auth.Identity
	errs       map[string]error
}

func (v *stubVerifier) Verify(ctx context.Context, idToken string) (*auth.Identity, error) {
	if id, ok := v.identities[idToken]; ok {
		return id, nil
	}
	if err, ok := v.errs[idToken]; ok {
		return nil, err
	}
	return nil, auth.ErrInvalidIDToken
}

func setupAuthServiceTest(t *testing.T, verifier auth.IdentityVerifier) (AuthService, repository.UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	svc := NewAuthService(
		userRepo,
		storage.NewInlineImageStore(1024),
		verifier,
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	return svc, userRepo
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name:  "Valid registration",
			input: RegisterInput{Email: " Test@Example.com ", Password: "password123", Name: "Test User"},
		},
		{
			name:    "Duplicate email",
			input:   RegisterInput{Email: "test@example.com", Password: "password456", Name: "Another User"},
			wantErr: ErrEmailAlreadyExists,
		},
		{
			name:    "Missing name",
			input:   RegisterInput{Email: "noname@example.com", Password: "password123", Name: "  "},
			wantErr: ErrNameRequired,
		},
		{
			name:    "Invalid email",
			input:   RegisterInput{Email: "not-an-email", Password: "password123", Name: "X"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "Short password",
			input:   RegisterInput{Email: "short@example.com", Password: "12345", Name: "X"},
			wantErr: ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := svc.Register(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test@example.com", user.Email)
			assert.Equal(t, model.ProviderPassword, user.Provider)
			assert.Equal(t, model.RoleUser, user.Role)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEmpty(t, tokens.RefreshToken)
		})
	}
}

func TestAuthService_RegisterStoresAvatar(t *testing.T) {
	svc, userRepo := setupAuthServiceTest(t, nil)
	photo := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("avatar"))

	user, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "avatar@example.com", Password: "password123", Name: "Avatar", Photo: photo,
	})
	require.NoError(t, err)

	stored, err := userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, photo, stored.PhotoURL)
}

func TestAuthService_Login(t *testing.T) {
	svc, userRepo := setupAuthServiceTest(t, nil)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, RegisterInput{Email: "login@example.com", Password: "password123", Name: "Login"})
	require.NoError(t, err)

	t.Run("Valid credentials", func(t *testing.T) {
		user, tokens, err := svc.Login("LOGIN@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		require.NotNil(t, user.LastLoginAt)

		claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)

		stored, err := userRepo.FindByID(user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, _, err := svc.Login("login@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown user", func(t *testing.T) {
		_, _, err := svc.Login("missing@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_LoginWithFederatedToken(t *testing.T) {
	verifier := &stubVerifier{identities: map[string]*auth.Identity{
		"new-token":    {UID: "uid-new", Email: "new@example.com", Name: "Novo", Provider: "google"},
		"link-token":   {UID: "uid-link", Email: "existing@example.com", PhotoURL: "https://photos.example.com/p.png", Provider: "google"},
		"noname-token": {UID: "uid-noname", Email: "anon@example.com", Provider: "google"},
	}}
	svc, userRepo := setupAuthServiceTest(t, verifier)
	ctx := context.Background()

	existing, _, err := svc.Register(ctx, RegisterInput{Email: "existing@example.com", Password: "password123", Name: "Existing"})
	require.NoError(t, err)

	t.Run("Creates a new account", func(t *testing.T) {
		user, tokens, err := svc.LoginWithFederatedToken(ctx, "new-token")
		require.NoError(t, err)
		assert.Equal(t, model.ProviderGoogle, user.Provider)
		assert.Equal(t, "Novo", user.Name)
		assert.NotEmpty(t, tokens.AccessToken)

		again, _, err := svc.LoginWithFederatedToken(ctx, "new-token")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("Links an existing account by email", func(t *testing.T) {
		user, _, err := svc.LoginWithFederatedToken(ctx, "link-token")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)

		stored, err := userRepo.FindByFirebaseUID("uid-link")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, stored.ID)
		assert.Equal(t, "https://photos.example.com/p.png", stored.PhotoURL)
	})

	t.Run("Name falls back to the email local part", func(t *testing.T) {
		user, _, err := svc.LoginWithFederatedToken(ctx, "noname-token")
		require.NoError(t, err)
		assert.Equal(t, "anon", user.Name)
	})

	t.Run("Rejected token", func(t *testing.T) {
		_, _, err := svc.LoginWithFederatedToken(ctx, "forged")
		assert.ErrorIs(t, err, ErrFederatedSignIn)
	})
}

func TestAuthService_FederatedUnverifiedEmailDoesNotLink(t *testing.T) {
	verifier := &stubVerifier{errs: map[string]error{"unverified-token": auth.ErrUnverifiedEmail}}
	svc, userRepo := setupAuthServiceTest(t, verifier)
	ctx := context.Background()

	victim, _, err := svc.Register(ctx, RegisterInput{Email: "victim@example.com", Password: "password123", Name: "Victim"})
	require.NoError(t, err)

	_, _, err = svc.LoginWithFederatedToken(ctx, "unverified-token")
	assert.ErrorIs(t, err, ErrFederatedSignIn)

	stored, err := userRepo.FindByID(victim.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FirebaseUID)
}

func TestAuthService_FederatedUnavailable(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, nil)

	_, _, err := svc.LoginWithFederatedToken(context.Background(), "any")
	assert.ErrorIs(t, err, ErrFederatedUnavailable)
}

func TestAuthService_Logout(t *testing.T) {
	redis.SetClient(nil)
	svc, _ := setupAuthServiceTest(t, nil)
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, RegisterInput{Email: "logout@example.com", Password: "password123", Name: "Bye"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.AccessToken, tokens.RefreshToken))

	for _, token := range []string{tokens.AccessToken, tokens.RefreshToken} {
		revoked, err := redis.IsTokenBlacklisted(ctx, token)
		require.NoError(t, err)
		assert.True(t, revoked)
	}

	_, err = svc.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.NoError(t, svc.Logout(ctx, "garbage", ""))
}

func TestAuthService_LogoutIgnoresForeignRefreshToken(t *testing.T) {
	redis.SetClient(nil)
	svc, _ := setupAuthServiceTest(t, nil)
	ctx := context.Background()

	_, mine, err := svc.Register(ctx, RegisterInput{Email: "mine@example.com", Password: "password123", Name: "Mine"})
	require.NoError(t, err)
	_, theirs, err := svc.Register(ctx, RegisterInput{Email: "theirs@example.com", Password: "password123", Name: "Theirs"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, mine.AccessToken, theirs.RefreshToken))

	revoked, err := redis.IsTokenBlacklisted(ctx, theirs.RefreshToken)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	redis.SetClient(nil)
	svc, userRepo := setupAuthServiceTest(t, nil)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, RegisterInput{Email: "refresh@example.com", Password: "password123", Name: "Refresh"})
	require.NoError(t, err)

	t.Run("Access token is rejected", func(t *testing.T) {
		_, err := svc.RefreshTokens(ctx, tokens.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := svc.RefreshTokens(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Issues a new pair with the current role", func(t *testing.T) {
		user.Role = model.RoleAdmin
		require.NoError(t, userRepo.Update(user))

		fresh, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
		require.NoError(t, err)

		claims, err := util.ValidateToken(fresh.AccessToken, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, util.TokenTypeAccess, claims.TokenType)
		assert.Equal(t, string(model.RoleAdmin), claims.Role)

		refreshClaims, err := util.ValidateToken(fresh.RefreshToken, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, util.TokenTypeRefresh, refreshClaims.TokenType)
	})

	t.Run("A used refresh token cannot be replayed", func(t *testing.T) {
		_, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestAuthService_RefreshTokensForDeletedUser(t *testing.T) {
	redis.SetClient(nil)
	svc, _ := setupAuthServiceTest(t, nil)

	pair, err := util.GenerateTokenPair(4242, "ghost@example.com", "user", testJWTSecret, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = svc.RefreshTokens(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, nil)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{Email: "profile@example.com", Password: "password123", Name: "Antes"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, "Depois", "https://cdn.example.com/me.png")
	require.NoError(t, err)
	assert.Equal(t, "Depois", updated.Name)
	assert.Equal(t, "https://cdn.example.com/me.png", updated.PhotoURL)

	// Blank fields keep their values.
	updated, err = svc.UpdateProfile(ctx, user.ID, " ", "")
	require.NoError(t, err)
	assert.Equal(t, "Depois", updated.Name)

	oversize := "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, 2048))
	_, err = svc.UpdateProfile(ctx, user.ID, "", oversize)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.UpdateProfile(ctx, 9999, "X", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
