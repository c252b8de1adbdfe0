package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
		wantMsg  string
	}{
		{name: "Nil", err: nil, wantCode: InternalServerError, wantMsg: MsgInternal},
		{name: "Not found product", err: fmt.Errorf("load: %w", gorm.ErrRecordNotFound), context: "product", wantCode: ResourceNotFound, wantMsg: "Jogo não encontrado."},
		{name: "Duplicate email", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`), wantCode: AuthEmailAlreadyExists, wantMsg: MsgEmailInUse},
		{name: "SQLite unique", err: errors.New("UNIQUE constraint failed: cart_items.user_id, cart_items.product_id"), wantCode: ResourceConflict},
		{name: "Deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), wantCode: InternalNetworkError, wantMsg: MsgNetwork},
		{name: "Refused", err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), wantCode: InternalNetworkError},
		{name: "Not null", err: errors.New("NOT NULL constraint failed: products.title"), wantCode: ValidationRequired},
		{name: "Unknown create", err: errors.New("boom"), context: "product create", wantCode: InternalServerError, wantMsg: "Erro ao salvar. Tente novamente mais tarde."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, info.Message)
			}
			assert.NotContains(t, info.Message, "127.0.0.1")
		})
	}
}

func TestParseAndRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ParseAndRespond(c, http.StatusNotFound, gorm.ErrRecordNotFound, "cart")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"RESOURCE_NOT_FOUND","message":"Item não encontrado no carrinho."}`, w.Body.String())
}

func TestShortcuts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Unauthorized(c, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), AuthUnauthorized)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondWithValidationError(c, "", map[string]string{"title": "obrigatório"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"obrigatório"`)
}
