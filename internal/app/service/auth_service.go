package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/auth"
	"github.com/phantomcommerce/phantom-backend/internal/metrics"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/phantomcommerce/phantom-backend/pkg/redis"
	"github.com/phantomcommerce/phantom-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrWeakPassword         = util.ErrWeakPassword
	ErrFederatedSignIn      = errors.New("federated sign-in failed")
	ErrFederatedUnavailable = auth.ErrVerifierUnavailable
	ErrInvalidToken         = util.ErrInvalidToken
	ErrExpiredToken         = util.ErrExpiredToken
	ErrTokenRevoked         = errors.New("token has been revoked")
)

// Sign-in methods reported on metrics.
const (
	authMethodRegister  = "register"
	authMethodPassword  = "password"
	authMethodFederated = "federated"
)

const avatarName = "profile"

// RegisterInput is a new password account. Photo may be a data URL.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Photo    string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	LoginWithFederatedToken(ctx context.Context, idToken string) (*model.User, *util.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, name, photo string) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	images        storage.ImageStore
	verifier      auth.IdentityVerifier
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewAuthService wires the account flows. verifier may be nil when federated
// sign-in is not configured.
func NewAuthService(
	userRepo repository.UserRepository,
	images storage.ImageStore,
	verifier auth.IdentityVerifier,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		images:        images,
		verifier:      verifier,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail accepts a bare address with a domain part.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	user, tokens, err := s.register(ctx, input)
	metrics.AuthAttemptsTotal.WithLabelValues(authMethodRegister, metrics.Result(err)).Inc()
	return user, tokens, err
}

func (s *authService) register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
		"name":  name,
	})

	if name == "" {
		return nil, nil, ErrNameRequired
	}
	if !ValidEmail(email) {
		return nil, nil, ErrInvalidEmail
	}
	if err := util.CheckPasswordStrength(input.Password); err != nil {
		return nil, nil, ErrWeakPassword
	}

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Provider:     model.ProviderPassword,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	// The avatar key needs the user id, so the photo is stored after the row exists.
	if strings.TrimSpace(input.Photo) != "" {
		if err := s.setPhoto(ctx, user, input.Photo); err != nil {
			logger.Warn("Registered without avatar", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	user, tokens, err := s.login(email, password)
	metrics.AuthAttemptsTotal.WithLabelValues(authMethodPassword, metrics.Result(err)).Inc()
	return user, tokens, err
}

func (s *authService) login(email, password string) (*model.User, *util.TokenPair, error) {
	email = NormalizeEmail(email)
	logger.Info("Attempting user login", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user during login", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	s.touchLastLogin(user)

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, tokens, nil
}

func (s *authService) LoginWithFederatedToken(ctx context.Context, idToken string) (*model.User, *util.TokenPair, error) {
	user, tokens, err := s.loginWithFederatedToken(ctx, idToken)
	metrics.AuthAttemptsTotal.WithLabelValues(authMethodFederated, metrics.Result(err)).Inc()
	return user, tokens, err
}

func (s *authService) loginWithFederatedToken(ctx context.Context, idToken string) (*model.User, *util.TokenPair, error) {
	if s.verifier == nil {
		return nil, nil, ErrFederatedUnavailable
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrVerifierUnavailable) {
			return nil, nil, ErrFederatedUnavailable
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrFederatedSignIn, err)
	}

	logger.Info("Attempting federated login", map[string]interface{}{
		"email":    identity.Email,
		"provider": identity.Provider,
	})

	user, err := s.userRepo.FindByFirebaseUID(identity.UID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to find federated user", err)
		return nil, nil, err
	}

	if user == nil {
		user, err = s.linkOrCreateFederatedUser(identity)
		if err != nil {
			return nil, nil, err
		}
	}

	s.touchLastLogin(user)

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Federated login succeeded", map[string]interface{}{
		"user_id":  user.ID,
		"provider": user.Provider,
	})
	return user, tokens, nil
}

// linkOrCreateFederatedUser attaches identity to the account with the same
// email, or creates one.
func (s *authService) linkOrCreateFederatedUser(identity *auth.Identity) (*model.User, error) {
	uid := identity.UID

	user, err := s.userRepo.FindByEmail(identity.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to find user by federated email", err)
		return nil, err
	}

	if user != nil {
		user.FirebaseUID = &uid
		if user.PhotoURL == "" {
			user.PhotoURL = identity.PhotoURL
		}
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
		logger.Info("Linked federated identity to existing user", map[string]interface{}{
			"user_id": user.ID,
		})
		return user, nil
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = identity.Email
		if at := strings.Index(name, "@"); at > 0 {
			name = name[:at]
		}
	}
	provider := identity.Provider
	if provider == "" {
		provider = model.ProviderGoogle
	}

	user = &model.User{
		Email:       identity.Email,
		Name:        name,
		PhotoURL:    identity.PhotoURL,
		Provider:    provider,
		FirebaseUID: &uid,
		Role:        model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create federated user", err, map[string]interface{}{
			"email": identity.Email,
		})
		return nil, err
	}
	return user, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The presented
// token is revoked so each refresh token works once.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		logger.Warn("Refresh attempted with a non-refresh token", map[string]interface{}{
			"user_id":    claims.UserID,
			"token_type": claims.TokenType,
		})
		return nil, ErrInvalidToken
	}

	revoked, err := redis.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		logger.Error("Failed to check refresh token blacklist", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, err
	}
	if revoked {
		logger.Warn("Revoked refresh token presented", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, ErrTokenRevoked
	}

	// Reload so a role change since sign-in lands in the new tokens.
	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if err := redis.BlacklistToken(ctx, refreshToken, claims.RemainingValidity()); err != nil {
		logger.Error("Failed to revoke used refresh token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	logger.Info("Tokens refreshed", map[string]interface{}{
		"user_id": user.ID,
	})
	return tokens, nil
}

// Logout revokes accessToken and, when given, the refresh token issued with
// it. A refresh token belonging to another user is ignored.
func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		// Nothing to revoke.
		return nil
	}

	if err := redis.BlacklistToken(ctx, accessToken, claims.RemainingValidity()); err != nil {
		logger.Error("Failed to revoke token on logout", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	if refreshToken != "" {
		refreshClaims, err := util.ValidateToken(refreshToken, s.jwtSecret)
		switch {
		case err != nil:
			logger.Debug("Skipping unusable refresh token on logout", map[string]interface{}{
				"user_id": claims.UserID,
				"error":   err.Error(),
			})
		case refreshClaims.TokenType != util.TokenTypeRefresh || refreshClaims.UserID != claims.UserID:
			logger.Warn("Refresh token on logout does not match the session", map[string]interface{}{
				"user_id": claims.UserID,
			})
		default:
			if err := redis.BlacklistToken(ctx, refreshToken, refreshClaims.RemainingValidity()); err != nil {
				logger.Error("Failed to revoke refresh token on logout", err, map[string]interface{}{
					"user_id": claims.UserID,
				})
				return err
			}
		}
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, name, photo string) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if strings.TrimSpace(photo) != "" {
		if err := s.storePhoto(ctx, user, photo); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return user, nil
}

// setPhoto stores photo and saves it on user.
func (s *authService) setPhoto(ctx context.Context, user *model.User, photo string) error {
	if err := s.storePhoto(ctx, user, photo); err != nil {
		return err
	}
	return s.userRepo.Update(user)
}

func (s *authService) storePhoto(ctx context.Context, user *model.User, photo string) error {
	folder := fmt.Sprintf("avatars/%d", user.ID)
	url, err := s.images.Store(ctx, folder, avatarName, photo)
	if err != nil {
		return err
	}
	user.PhotoURL = url
	return nil
}

func (s *authService) touchLastLogin(user *model.User) {
	now := s.now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		// Sign-in goes on without the timestamp.
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return
	}
	user.LastLoginAt = &now
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
