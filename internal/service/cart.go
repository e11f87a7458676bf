package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/internal/event"
	"github.com/utafrali/ghstore/internal/inventory"
	"github.com/utafrali/ghstore/internal/repository"
	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem caps every stock ceiling, whatever inventory reports.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines in a cart.
	MaxItemsPerCart = 50
)

// MaxUnitPrice is the largest unit price accepted for a line item.
var MaxUnitPrice = decimal.NewFromInt(100_000)

// AddItemInput holds the parameters for adding an item to the cart.
// MaxQuantity is the caller's stock snapshot. It can lower the ceiling the
// inventory service reports but never raise it; zero means no snapshot.
type AddItemInput struct {
	ProductID   string          `json:"product_id" validate:"required,max=64"`
	VariantID   string          `json:"variant_id" validate:"max=64"`
	Name        string          `json:"name" validate:"required,max=255"`
	SKU         string          `json:"sku" validate:"max=64"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	MaxQuantity int             `json:"max_quantity" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
}

// UpdateQuantityInput holds the parameters for updating an item quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CartView is a cart together with the summary priced from the same
// snapshot.
type CartView struct {
	Cart    *domain.Cart   `json:"cart"`
	Summary domain.Summary `json:"summary"`
}

// CartSettings holds the storefront policy applied to every cart.
type CartSettings struct {
	Currency string
	CartTTL  time.Duration
	Pricing  domain.PricingConfig
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo      repository.CartRepository
	publisher event.Publisher
	stock     inventory.StockProvider
	settings  CartSettings
	logger    *slog.Logger
	now       func() time.Time
}

// NewCartService creates a new cart service. stock may be nil, in which case
// the caller's MaxQuantity is trusted and items without one are capped at
// MaxQuantityPerItem.
func NewCartService(
	repo repository.CartRepository,
	publisher event.Publisher,
	stock inventory.StockProvider,
	settings CartSettings,
	logger *slog.Logger,
) *CartService {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{
		repo:      repo,
		publisher: publisher,
		stock:     stock,
		settings:  settings,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetCart retrieves the cart for a user. If no cart exists, returns an empty
// cart that is not persisted.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.getOrCreateCart(ctx, userID)
}

// GetSummary returns the cart and its price breakdown, both derived from one
// stored snapshot.
func (s *CartService) GetSummary(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

// AddItem adds an item to the user's cart. Adding a product/variant already
// in the cart increases its quantity, clamped to the stock ceiling.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*CartView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.MaxQuantity < 0 {
		return nil, apperrors.InvalidInput("max quantity must not be negative")
	}
	if input.UnitPrice.GreaterThan(MaxUnitPrice) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unit price must not exceed %s", MaxUnitPrice))
	}

	ceiling, err := s.stockCeiling(ctx, input)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	itemID := domain.LineItemID(input.ProductID, input.VariantID)
	if _, exists := cart.FindItem(itemID); !exists && len(cart.Items) >= MaxItemsPerCart {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
	}

	err = cart.AddItem(domain.LineItem{
		ProductID:   input.ProductID,
		VariantID:   input.VariantID,
		Name:        input.Name,
		SKU:         input.SKU,
		UnitPrice:   input.UnitPrice,
		MaxQuantity: ceiling,
		ImageURL:    input.ImageURL,
	}, input.Quantity)
	if err != nil {
		return nil, err
	}

	view, err := s.commit(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}

	item, _ := cart.FindItem(itemID)
	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", input.ProductID),
		slog.String("variant_id", input.VariantID),
		slog.Int("requested", input.Quantity),
		slog.Int("quantity", item.Quantity),
		slog.Int("max_quantity", item.MaxQuantity),
	)

	return view, nil
}

// UpdateItemQuantity sets the quantity of an item. Zero removes it; a
// quantity above the stock ceiling is rejected and the cart is unchanged.
// Unknown items leave the cart as it is.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*CartView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	if _, ok := cart.FindItem(itemID); !ok {
		if quantity < 0 {
			return nil, apperrors.InvalidInput("quantity must not be negative")
		}
		return s.view(cart), nil
	}

	if err := cart.UpdateQuantity(itemID, quantity); err != nil {
		return nil, err
	}

	view, err := s.commit(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
		slog.Int("quantity", quantity),
	)

	return view, nil
}

// RemoveItem removes a specific item from the cart. Removing an item that is
// not in the cart is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*CartView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := cart.FindItem(itemID); !ok {
		return s.view(cart), nil
	}
	expectedVersion := cart.Version

	cart.RemoveItem(itemID)

	view, err := s.commit(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
	)

	return view, nil
}

// ClearCart removes all items from the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get cart for clear: %w", err)
	}
	expectedVersion := cart.Version

	cart.Clear()
	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return err
	}

	if err := s.publisher.PublishCartCleared(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// stockCeiling resolves the most units of the requested item a cart may
// hold. A configured inventory service is always asked; the caller's
// MaxQuantity can only lower its answer. Without inventory the caller's
// value is used. Every ceiling is capped at MaxQuantityPerItem.
func (s *CartService) stockCeiling(ctx context.Context, input AddItemInput) (int, error) {
	ceiling := MaxQuantityPerItem
	if s.stock != nil {
		available, err := s.stock.Available(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return 0, fmt.Errorf("look up stock: %w", err)
		}
		ceiling = min(ceiling, available)
	}
	if input.MaxQuantity > 0 {
		ceiling = min(ceiling, input.MaxQuantity)
	}
	return ceiling, nil
}

// commit saves a mutated cart and announces the new snapshot.
func (s *CartService) commit(ctx context.Context, cart *domain.Cart, expectedVersion int) (*CartView, error) {
	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	view := s.view(cart)
	if err := s.publisher.PublishCartUpdated(ctx, cart, view.Summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
	return view, nil
}

// save persists cart with optimistic locking, refreshing its expiry.
func (s *CartService) save(ctx context.Context, cart *domain.Cart, expectedVersion int) error {
	now := s.now()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.settings.CartTTL)

	ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return apperrors.Conflict("cart was modified concurrently, please retry")
	}
	return nil
}

func (s *CartService) view(cart *domain.Cart) *CartView {
	return &CartView{
		Cart:    cart,
		Summary: cart.Summary(s.settings.Pricing),
	}
}

// getOrCreateCart retrieves the cart for a user, creating an empty one if it does not exist.
func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(userID, s.settings.Currency, s.now(), s.settings.CartTTL), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}
