package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	apperrors "github.com/phantomcommerce/phantom-backend/internal/errors"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
	"github.com/phantomcommerce/phantom-backend/pkg/util"
)

type AuthController struct {
	authService service.AuthService
	cartService service.CartService
}

func NewAuthController(authService service.AuthService, cartService service.CartService) *AuthController {
	return &AuthController{
		authService: authService,
		cartService: cartService,
	}
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
	Photo           string `json:"photo"` // data URL or hosted URL
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type FederatedLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest is optional; without it only the access token is revoked.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// validate returns per-field messages, empty when the form is acceptable.
func (r RegisterRequest) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "Nome é obrigatório"
	}
	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = "Email é obrigatório"
	} else if !service.ValidEmail(service.NormalizeEmail(r.Email)) {
		fields["email"] = apperrors.MsgInvalidEmail
	}
	if r.Password == "" {
		fields["password"] = "Senha é obrigatória"
	} else if util.CheckPasswordStrength(r.Password) != nil {
		fields["password"] = apperrors.MsgWeakPassword
	}
	if r.ConfirmPassword != r.Password {
		fields["confirm_password"] = "Senhas não coincidem"
	}
	return fields
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"photo_url":     user.PhotoURL,
		"provider":      user.Provider,
		"role":          user.Role,
		"last_login_at": user.LastLoginAt,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	if fields := req.validate(); len(fields) > 0 {
		log.Warn("Registration form rejected", map[string]interface{}{
			"fields": fields,
		})
		apperrors.RespondWithValidationError(c, "", fields)
		return
	}

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Photo:    req.Photo,
	})
	if err != nil {
		ctrl.respondAuthError(c, err, "register user")
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Conta criada com sucesso",
		"user":    userResponse(user),
		"tokens":  tokens,
		"cart":    ctrl.mergeGuestCart(c, user.ID),
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		log.Warn("Invalid login request", nil)
		apperrors.RespondWithValidationError(c, "", map[string]string{
			"email":    "Email é obrigatório",
			"password": "Senha é obrigatória",
		})
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		ctrl.respondAuthError(c, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Login realizado com sucesso",
		"user":    userResponse(user),
		"tokens":  tokens,
		"cart":    ctrl.mergeGuestCart(c, user.ID),
	})
}

// FederatedLogin exchanges a Google ID token for local tokens
// POST /api/v1/auth/federated
func (ctrl *AuthController) FederatedLogin(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req FederatedLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid federated login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, apperrors.MsgFederatedFailed)
		return
	}

	user, tokens, err := ctrl.authService.LoginWithFederatedToken(c.Request.Context(), req.IDToken)
	if err != nil {
		ctrl.respondAuthError(c, err, "federated login")
		return
	}

	log.Info("Federated login successful", map[string]interface{}{
		"user_id":  user.ID,
		"provider": user.Provider,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Login realizado com sucesso",
		"user":    userResponse(user),
		"tokens":  tokens,
		"cart":    ctrl.mergeGuestCart(c, user.ID),
	})
}

// Logout revokes the access token of the request and the refresh token in
// the body, if any
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, ok := middleware.GetToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid logout request", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
			return
		}
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token, req.RefreshToken); err != nil {
		log.Error("Logout failed", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "logout")
		return
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("User logged out", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout realizado com sucesso",
	})
}

// RefreshToken exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid refresh token request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	tokens, err := ctrl.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenRevoked):
			log.Warn("Token refresh failed: token revoked", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Sessão encerrada. Faça login novamente.")
		case errors.Is(err, service.ErrExpiredToken):
			log.Warn("Token refresh failed: token expired", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Sua sessão expirou. Faça login novamente.")
		case errors.Is(err, service.ErrInvalidToken):
			log.Warn("Token refresh failed: invalid token", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Token de autenticação inválido.")
		default:
			log.Error("Failed to refresh token", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Token refreshed successfully")

	c.JSON(http.StatusOK, gin.H{
		"message": "Sessão renovada",
		"tokens":  tokens,
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to GetMe endpoint", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		ctrl.respondAuthError(c, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateMe updates name and avatar of the current user
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid profile update request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	user, err := ctrl.authService.UpdateProfile(c.Request.Context(), userID, req.Name, req.Photo)
	if err != nil {
		ctrl.respondAuthError(c, err, "update user")
		return
	}

	log.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Perfil atualizado com sucesso",
		"user":    userResponse(user),
	})
}

// mergeGuestCart folds the caller's anonymous cart into the account. A
// failure only costs the guest items, so sign-in still succeeds.
func (ctrl *AuthController) mergeGuestCart(c *gin.Context, userID uint) interface{} {
	session := c.GetHeader(middleware.GuestSessionHeader)
	if ctrl.cartService == nil || session == "" {
		return nil
	}

	summary, err := ctrl.cartService.MergeGuestCart(c.Request.Context(), userID, session)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to merge guest cart", err, map[string]interface{}{
			"user_id":       userID,
			"guest_session": session,
		})
		return nil
	}
	return summary
}

// respondAuthError maps auth service errors to the fixed set of messages.
func (ctrl *AuthController) respondAuthError(c *gin.Context, err error, operation string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		log.Warn("Invalid credentials", nil)
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, apperrors.MsgInvalidCredentials)
	case errors.Is(err, service.ErrEmailAlreadyExists):
		log.Warn("Email already in use", nil)
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, apperrors.MsgEmailInUse)
	case errors.Is(err, service.ErrWeakPassword):
		apperrors.BadRequest(c, apperrors.AuthWeakPassword, apperrors.MsgWeakPassword)
	case errors.Is(err, service.ErrInvalidEmail):
		apperrors.BadRequest(c, apperrors.AuthInvalidEmail, apperrors.MsgInvalidEmail)
	case errors.Is(err, service.ErrNameRequired):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Nome é obrigatório")
	case errors.Is(err, service.ErrImageTooLarge):
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, apperrors.MsgImageTooLarge)
	case errors.Is(err, service.ErrFederatedUnavailable):
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.AuthFederatedDisabled, apperrors.MsgFederatedDisabled)
	case errors.Is(err, service.ErrFederatedSignIn):
		log.Warn("Federated sign-in rejected", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthFederatedFailed, apperrors.MsgFederatedFailed)
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Usuário não encontrado.")
	default:
		log.Error("Auth operation failed", err, map[string]interface{}{
			"operation": operation,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, operation)
	}
}
