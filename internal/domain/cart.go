package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

// lineItemNamespace seeds the name-based UUIDs used as line item ids.
var lineItemNamespace = uuid.MustParse("6f1c2b8e-4a7d-5e3f-9b21-0c8d7a6e5f43")

// LineItemID returns the stable id of a product/variant pair. The same pair
// always maps to the same id; a product with two variants gets two ids.
func LineItemID(productID, variantID string) string {
	return uuid.NewSHA1(lineItemNamespace, []byte(productID+"/"+variantID)).String()
}

// LineItem is one product (and optional variant) in a cart.
type LineItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"max_quantity"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// LineTotal returns UnitPrice × Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is a user's ordered list of line items. Every item satisfies
// 1 ≤ Quantity ≤ MaxQuantity after any mutating method returns.
//
// Cart is not safe for concurrent use; the service layer serializes writes
// through versioned saves.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID, currency string, now time.Time, ttl time.Duration) *Cart {
	return &Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []LineItem{},
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// OutOfStockMessage is the shopper-facing text for a stock ceiling.
func OutOfStockMessage(available int) string {
	if available < 1 {
		return "Out of stock."
	}
	return fmt.Sprintf("Only %d in stock.", available)
}

// AddItem adds desired units of item. An item already in the cart has its
// quantity increased and silently clamped to the stock ceiling, which is
// refreshed from item.MaxQuantity. A new item is appended with
// min(desired, MaxQuantity) units.
func (c *Cart) AddItem(item LineItem, desired int) error {
	if desired <= 0 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}
	if item.ProductID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if item.UnitPrice.IsNegative() {
		return apperrors.InvalidInput("unit price must not be negative")
	}
	if item.MaxQuantity < 1 {
		return apperrors.OutOfStock(OutOfStockMessage(0))
	}

	item.ID = LineItemID(item.ProductID, item.VariantID)

	if i := c.indexOf(item.ID); i >= 0 {
		existing := &c.Items[i]
		existing.Name = item.Name
		existing.SKU = item.SKU
		existing.UnitPrice = item.UnitPrice
		existing.ImageURL = item.ImageURL
		existing.MaxQuantity = item.MaxQuantity
		existing.Quantity = min(existing.Quantity+min(desired, existing.MaxQuantity), existing.MaxQuantity)
		return nil
	}

	item.Quantity = min(desired, item.MaxQuantity)
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity sets the quantity of an item. Zero removes it. A quantity
// above the item's ceiling is rejected with an out-of-stock error and the
// item is left unchanged. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}

	i := c.indexOf(itemID)
	if i < 0 {
		return nil
	}
	if quantity == 0 {
		c.removeAt(i)
		return nil
	}
	if quantity > c.Items[i].MaxQuantity {
		return apperrors.OutOfStock(OutOfStockMessage(c.Items[i].MaxQuantity))
	}

	c.Items[i].Quantity = quantity
	return nil
}

// RemoveItem deletes an item. Unknown ids are ignored.
func (c *Cart) RemoveItem(itemID string) {
	if i := c.indexOf(itemID); i >= 0 {
		c.removeAt(i)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// FindItem returns the item with the given id.
func (c *Cart) FindItem(itemID string) (LineItem, bool) {
	if i := c.indexOf(itemID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Subtotal returns the unrounded sum of all line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	return subtotal(c.Items)
}

// Summary prices the cart under cfg.
func (c *Cart) Summary(cfg PricingConfig) Summary {
	return ComputeSummary(c.Items, cfg)
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}
