package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	apperrors "github.com/phantomcommerce/phantom-backend/internal/errors"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
	ws "github.com/phantomcommerce/phantom-backend/internal/websocket"
)

type CartController struct {
	cartService service.CartService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

// NewCartController serves the cart of the caller: the signed-in user when
// a token is present, otherwise the guest session. Sockets are accepted
// from allowedOrigins only.
func NewCartController(cartService service.CartService, hub *ws.Hub, allowedOrigins []string) *CartController {
	return &CartController{
		cartService: cartService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(origin, allowedOrigins)
			},
		},
	}
}

type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type MergeCartRequest struct {
	GuestSession string `json:"guest_session"`
}

func cartOwner(c *gin.Context) service.CartOwner {
	if userID, ok := middleware.GetUserID(c); ok {
		return service.CartOwner{UserID: userID}
	}
	return service.CartOwner{GuestSession: middleware.GetGuestSession(c)}
}

func productIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetCart returns the caller's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner := cartOwner(c)

	summary, err := ctrl.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		ctrl.respondCartError(c, err, "get cart")
		return
	}

	log.Debug("Cart fetched", map[string]interface{}{
		"owner":      owner.Key(),
		"item_count": summary.ItemCount,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": summary,
	})
}

// AddItem adds one unit of a product
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	summary, err := ctrl.cartService.AddItem(c.Request.Context(), cartOwner(c), req.ProductID)
	if err != nil {
		ctrl.respondCartError(c, err, "add to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Jogo adicionado ao carrinho",
		"cart":    summary,
	})
}

// UpdateItem sets the quantity of a cart entry; below 1 removes it
// PUT /api/v1/cart/items/:product_id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, ok := productIDParam(c)
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Jogo inválido.")
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid cart update request", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	summary, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), cartOwner(c), productID, *req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, err, "update cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": summary,
	})
}

// RemoveItem deletes a cart entry; missing entries are ignored
// DELETE /api/v1/cart/items/:product_id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Jogo inválido.")
		return
	}

	summary, err := ctrl.cartService.RemoveItem(c.Request.Context(), cartOwner(c), productID)
	if err != nil {
		ctrl.respondCartError(c, err, "delete cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": summary,
	})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	summary, err := ctrl.cartService.ClearCart(c.Request.Context(), cartOwner(c))
	if err != nil {
		ctrl.respondCartError(c, err, "clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Carrinho esvaziado",
		"cart":    summary,
	})
}

// MergeCart folds a guest cart into the signed-in user's cart
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req MergeCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
			return
		}
	}
	session := req.GuestSession
	if session == "" {
		session = c.GetHeader(middleware.GuestSessionHeader)
	}

	summary, err := ctrl.cartService.MergeGuestCart(c.Request.Context(), userID, session)
	if err != nil {
		log.Error("Failed to merge guest cart", err, map[string]interface{}{
			"user_id": userID,
		})
		ctrl.respondCartError(c, err, "merge cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": summary,
	})
}

// WebSocket streams cart snapshots of the caller
// GET /api/v1/cart/ws
func (ctrl *CartController) WebSocket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.hub == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalConfigError, apperrors.MsgInternal)
		return
	}

	owner := cartOwner(c)
	if !owner.IsUser() && owner.GuestSession == "" {
		apperrors.BadRequest(c, apperrors.CartSessionRequired, apperrors.MsgLoginRequired)
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, nil)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, owner.Key())
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Cart socket established", map[string]interface{}{
		"owner": owner.Key(),
	})
}

func (ctrl *CartController) respondCartError(c *gin.Context, err error, operation string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Jogo não encontrado.")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Item não encontrado no carrinho.")
	case errors.Is(err, service.ErrNoCartOwner):
		apperrors.BadRequest(c, apperrors.CartSessionRequired, apperrors.MsgLoginRequired)
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"operation": operation,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, operation)
	}
}
