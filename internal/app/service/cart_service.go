package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/cart"
	"github.com/phantomcommerce/phantom-backend/internal/metrics"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrNoCartOwner      = errors.New("cart owner is required")
)

const (
	ownerUserPrefix  = "user:"
	ownerGuestPrefix = "guest:"
)

// CartOwner identifies whose cart an operation touches: a signed-in user,
// or otherwise an anonymous session.
type CartOwner struct {
	UserID       uint
	GuestSession string
}

func (o CartOwner) IsUser() bool {
	return o.UserID != 0
}

func (o CartOwner) valid() bool {
	return o.UserID != 0 || o.GuestSession != ""
}

// Key is the stable name of the owner used for socket fan-out.
func (o CartOwner) Key() string {
	if o.IsUser() {
		return ownerUserPrefix + strconv.FormatUint(uint64(o.UserID), 10)
	}
	return ownerGuestPrefix + o.GuestSession
}

func (o CartOwner) kind() string {
	if o.IsUser() {
		return "user"
	}
	return "guest"
}

// ParseCartOwner is the inverse of CartOwner.Key.
func ParseCartOwner(key string) (CartOwner, bool) {
	switch {
	case strings.HasPrefix(key, ownerUserPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(key, ownerUserPrefix), 10, 64)
		if err != nil || id == 0 {
			return CartOwner{}, false
		}
		return CartOwner{UserID: uint(id)}, true
	case strings.HasPrefix(key, ownerGuestPrefix):
		session := strings.TrimPrefix(key, ownerGuestPrefix)
		if session == "" {
			return CartOwner{}, false
		}
		return CartOwner{GuestSession: session}, true
	}
	return CartOwner{}, false
}

// CartPublisher receives the full cart after every successful mutation.
type CartPublisher interface {
	PublishCart(owner string, cart interface{})
}

type CartService interface {
	GetCart(ctx context.Context, owner CartOwner) (*cart.Summary, error)
	AddItem(ctx context.Context, owner CartOwner, productID uint) (*cart.Summary, error)
	UpdateQuantity(ctx context.Context, owner CartOwner, productID uint, quantity int) (*cart.Summary, error)
	RemoveItem(ctx context.Context, owner CartOwner, productID uint) (*cart.Summary, error)
	ClearCart(ctx context.Context, owner CartOwner) (*cart.Summary, error)
	MergeGuestCart(ctx context.Context, userID uint, sessionID string) (*cart.Summary, error)
	Snapshot(ownerKey string) (interface{}, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	guestCarts  GuestCartStore
	publisher   CartPublisher
	now         func() time.Time
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	guestCarts GuestCartStore,
	publisher CartPublisher,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		guestCarts:  guestCarts,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *cartService) GetCart(ctx context.Context, owner CartOwner) (*cart.Summary, error) {
	entries, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	summary := cart.Summarize(entries)
	return &summary, nil
}

func (s *cartService) AddItem(ctx context.Context, owner CartOwner, productID uint) (*cart.Summary, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"owner":      owner.Key(),
		"product_id": productID,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"owner":      owner.Key(),
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for cart", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	return s.mutate(ctx, owner, "add", func(entries []model.CartEntry, now time.Time) ([]model.CartEntry, error) {
		return cart.Add(entries, product, now), nil
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, owner CartOwner, productID uint, quantity int) (*cart.Summary, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"owner":      owner.Key(),
		"product_id": productID,
		"quantity":   quantity,
	})

	return s.mutate(ctx, owner, "update", func(entries []model.CartEntry, now time.Time) ([]model.CartEntry, error) {
		out, found := cart.SetQuantity(entries, productID, quantity, now)
		if !found {
			return nil, ErrCartItemNotFound
		}
		return out, nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, owner CartOwner, productID uint) (*cart.Summary, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"owner":      owner.Key(),
		"product_id": productID,
	})

	return s.mutate(ctx, owner, "remove", func(entries []model.CartEntry, now time.Time) ([]model.CartEntry, error) {
		return cart.Remove(entries, productID), nil
	})
}

func (s *cartService) ClearCart(ctx context.Context, owner CartOwner) (*cart.Summary, error) {
	logger.Info("Clearing cart", map[string]interface{}{
		"owner": owner.Key(),
	})

	return s.mutate(ctx, owner, "clear", func(entries []model.CartEntry, now time.Time) ([]model.CartEntry, error) {
		return []model.CartEntry{}, nil
	})
}

// MergeGuestCart folds the anonymous cart of sessionID into the cart of
// userID and drops the anonymous one.
func (s *cartService) MergeGuestCart(ctx context.Context, userID uint, sessionID string) (*cart.Summary, error) {
	owner := CartOwner{UserID: userID}
	if sessionID == "" {
		return s.GetCart(ctx, owner)
	}

	guestEntries, err := s.guestCarts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(guestEntries) == 0 {
		return s.GetCart(ctx, owner)
	}

	logger.Info("Merging guest cart", map[string]interface{}{
		"user_id":     userID,
		"session_id":  sessionID,
		"guest_items": len(guestEntries),
	})

	summary, err := s.mutate(ctx, owner, "merge", func(entries []model.CartEntry, now time.Time) ([]model.CartEntry, error) {
		return cart.Merge(entries, guestEntries, now), nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.guestCarts.Delete(ctx, sessionID); err != nil {
		// The merged cart is already saved; a leftover guest cart expires on its own.
		logger.Warn("Failed to drop merged guest cart", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	if s.publisher != nil {
		s.publisher.PublishCart(CartOwner{GuestSession: sessionID}.Key(), cart.Summarize(nil))
	}
	return summary, nil
}

// Snapshot loads the cart behind an owner key; used to answer socket sync
// requests.
func (s *cartService) Snapshot(ownerKey string) (interface{}, error) {
	owner, ok := ParseCartOwner(ownerKey)
	if !ok {
		return nil, fmt.Errorf("unknown cart owner %q", ownerKey)
	}
	return s.GetCart(context.Background(), owner)
}

// mutate loads the cart, applies op and overwrites the stored cart with the
// result. On any error the stored cart is left as it was.
func (s *cartService) mutate(
	ctx context.Context,
	owner CartOwner,
	operation string,
	op func([]model.CartEntry, time.Time) ([]model.CartEntry, error),
) (*cart.Summary, error) {
	entries, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	updated, err := op(entries, s.now())
	if err != nil {
		logger.Warn("Cart mutation rejected", map[string]interface{}{
			"owner":     owner.Key(),
			"operation": operation,
			"error":     err.Error(),
		})
		return nil, err
	}
	updated = cart.Normalize(updated)

	if err := s.save(ctx, owner, updated); err != nil {
		return nil, err
	}
	metrics.CartMutationsTotal.WithLabelValues(operation, owner.kind()).Inc()

	summary := cart.Summarize(updated)
	if s.publisher != nil {
		s.publisher.PublishCart(owner.Key(), summary)
	}

	logger.Info("Cart updated", map[string]interface{}{
		"owner":      owner.Key(),
		"operation":  operation,
		"item_count": summary.ItemCount,
	})
	return &summary, nil
}

func (s *cartService) load(ctx context.Context, owner CartOwner) ([]model.CartEntry, error) {
	if !owner.valid() {
		return nil, ErrNoCartOwner
	}

	if !owner.IsUser() {
		return s.guestCarts.Load(ctx, owner.GuestSession)
	}

	items, err := s.cartRepo.FindByUserID(owner.UserID)
	if err != nil {
		logger.Error("Failed to load user cart", err, map[string]interface{}{
			"user_id": owner.UserID,
		})
		return nil, err
	}
	entries := make([]model.CartEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.Entry())
	}
	return entries, nil
}

func (s *cartService) save(ctx context.Context, owner CartOwner, entries []model.CartEntry) error {
	if !owner.IsUser() {
		return s.guestCarts.Save(ctx, owner.GuestSession, entries)
	}
	if len(entries) == 0 {
		return s.cartRepo.DeleteByUserID(owner.UserID)
	}
	return s.cartRepo.ReplaceForUser(owner.UserID, model.NewCartItems(owner.UserID, entries))
}
