package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // user-facing text
}

// Default user-facing messages.
const (
	MsgLoginRequired      = "Faça login para continuar."
	MsgForbidden          = "Você não tem permissão para acessar este recurso."
	MsgInternal           = "Ocorreu um erro no servidor. Tente novamente mais tarde."
	MsgNetwork            = "Falha de conexão. Verifique sua internet e tente novamente."
	MsgInvalidCredentials = "Email ou senha inválidos."
	MsgEmailInUse         = "Este email já está em uso."
	MsgWeakPassword       = "Senha deve ter pelo menos 6 caracteres"
	MsgInvalidEmail       = "Email inválido"
	MsgFederatedFailed    = "Não foi possível entrar com o Google. Tente novamente."
	MsgFederatedDisabled  = "Login com Google indisponível no momento."
	MsgImageTooLarge      = "Uma ou mais imagens são muito grandes. Tente usar imagens menores."
	MsgInvalidInput       = "Dados inválidos."
)

// RespondWithError writes an ErrorResponse with statusCode.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = MsgLoginRequired
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = MsgForbidden
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = MsgInternal
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError lists per-field problems.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, message string, fields map[string]string) {
	if message == "" {
		message = MsgInvalidInput
	}
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: message,
		Fields:  fields,
	})
}
