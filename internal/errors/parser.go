package errors

import (
	"context"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code and message pair ready to send.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps an infrastructure error to a user-facing message. Details
// of the underlying failure are never exposed. context names the operation,
// e.g. "product", "cart", "user create".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: MsgInternal}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	if isNetworkError(err) {
		return ErrorInfo{Code: InternalNetworkError, Message: MsgNetwork}
	}

	errLower := strings.ToLower(err.Error())

	// postgres 23505 and sqlite UNIQUE failures
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// postgres 23502 and sqlite NOT NULL failures
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "Preencha todos os campos obrigatórios."}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	errLower := strings.ToLower(err.Error())
	return strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout")
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: MsgEmailInUse}
	}
	if strings.Contains(errLower, "firebase_uid") {
		return ErrorInfo{Code: ResourceConflict, Message: "Esta conta Google já está vinculada a outro usuário."}
	}
	if strings.Contains(errLower, "cart") {
		return ErrorInfo{Code: ResourceConflict, Message: "O carrinho foi alterado em outra sessão. Tente novamente."}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Este registro já existe."}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "Jogo não encontrado."
	case strings.Contains(contextLower, "cart"):
		return "Item não encontrado no carrinho."
	case strings.Contains(contextLower, "user"):
		return "Usuário não encontrado."
	}
	return "Não encontrado."
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Erro ao salvar. Tente novamente mais tarde."
	case strings.Contains(contextLower, "update"):
		return "Erro ao atualizar. Tente novamente mais tarde."
	case strings.Contains(contextLower, "delete"):
		return "Erro ao remover. Tente novamente mais tarde."
	case strings.Contains(contextLower, "cart"):
		return "Erro ao atualizar o carrinho. Tente novamente."
	case strings.Contains(contextLower, "search"):
		return "Erro ao buscar jogos. Tente novamente."
	}
	return MsgInternal
}

// ParseAndRespond writes ParseError(err, context) with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
