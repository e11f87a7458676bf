package domain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func kente(maxQty int) LineItem {
	return LineItem{
		ProductID:   "prod-kente",
		VariantID:   "size-m",
		Name:        "Kente Scarf",
		SKU:         "KNT-M",
		UnitPrice:   dec("8.40"),
		MaxQuantity: maxQty,
	}
}

// ============================================================================
// LineItemID
// ============================================================================

func TestLineItemID_Deterministic(t *testing.T) {
	assert.Equal(t, LineItemID("p1", "v1"), LineItemID("p1", "v1"))
	assert.NotEqual(t, LineItemID("p1", "v1"), LineItemID("p1", "v2"))
	assert.NotEqual(t, LineItemID("p1", ""), LineItemID("p2", ""))
}

// ============================================================================
// AddItem
// ============================================================================

func TestAddItem_NewItem(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(10), 2))

	require.Len(t, c.Items, 1)
	assert.Equal(t, LineItemID("prod-kente", "size-m"), c.Items[0].ID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 10, c.Items[0].MaxQuantity)
}

func TestAddItem_NewItemClampedToCeiling(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(3), 7))
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItem_MergesExistingAndClamps(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 3))
	require.NoError(t, c.AddItem(kente(5), 1))
	assert.Equal(t, 4, c.Items[0].Quantity)

	require.NoError(t, c.AddItem(kente(5), 10))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItem_HugeQuantityMergesWithoutOverflow(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 2))
	require.NoError(t, c.AddItem(kente(5), math.MaxInt))

	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItem_AtCeilingIsSilentNoOp(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(2), 2))
	require.NoError(t, c.AddItem(kente(2), 1))
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestAddItem_RefreshesCeilingAndDetails(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(10), 6))

	restocked := kente(4)
	restocked.UnitPrice = dec("9.00")
	require.NoError(t, c.AddItem(restocked, 1))

	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.Equal(t, 4, c.Items[0].MaxQuantity)
	assertDecimal(t, "9.00", c.Items[0].UnitPrice)
}

func TestAddItem_VariantsCoexist(t *testing.T) {
	c := &Cart{}
	small := kente(5)
	small.VariantID = "size-s"

	require.NoError(t, c.AddItem(kente(5), 1))
	require.NoError(t, c.AddItem(small, 1))
	assert.Len(t, c.Items, 2)
}

func TestAddItem_Rejections(t *testing.T) {
	negative := kente(5)
	negative.UnitPrice = dec("-1")
	noProduct := kente(5)
	noProduct.ProductID = ""

	tests := []struct {
		name     string
		item     LineItem
		qty      int
		sentinel error
	}{
		{"zero quantity", kente(5), 0, apperrors.ErrInvalidInput},
		{"negative quantity", kente(5), -2, apperrors.ErrInvalidInput},
		{"negative price", negative, 1, apperrors.ErrInvalidInput},
		{"missing product", noProduct, 1, apperrors.ErrInvalidInput},
		{"no stock", kente(0), 1, apperrors.ErrOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Cart{}
			err := c.AddItem(tt.item, tt.qty)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Empty(t, c.Items)
		})
	}
}

// ============================================================================
// UpdateQuantity / RemoveItem / Clear
// ============================================================================

func TestUpdateQuantity_SetsQuantity(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 1))
	id := c.Items[0].ID

	require.NoError(t, c.UpdateQuantity(id, 5))
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestUpdateQuantity_AboveCeilingRejected(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 2))
	id := c.Items[0].ID

	err := c.UpdateQuantity(id, 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Only 5 in stock.", appErr.Message)

	item, ok := c.FindItem(id)
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 2))

	require.NoError(t, c.UpdateQuantity(c.Items[0].ID, 0))
	assert.Empty(t, c.Items)
}

func TestUpdateQuantity_NegativeRejected(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 2))

	err := c.UpdateQuantity(c.Items[0].ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestUpdateQuantity_UnknownIDIsNoOp(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 2))

	assert.NoError(t, c.UpdateQuantity("missing", 3))
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	c := &Cart{}
	other := kente(5)
	other.ProductID = "prod-shito"
	require.NoError(t, c.AddItem(kente(5), 1))
	require.NoError(t, c.AddItem(other, 1))

	c.RemoveItem(c.Items[0].ID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "prod-shito", c.Items[0].ProductID)

	c.RemoveItem("missing")
	assert.Len(t, c.Items, 1)
}

func TestClear(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(kente(5), 1))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Items)
	assert.Equal(t, 0, c.ItemCount())
}

// ============================================================================
// Accessors
// ============================================================================

func TestItemCountAndSubtotal(t *testing.T) {
	c := &Cart{Items: []LineItem{
		{ID: "a", UnitPrice: dec("8.40"), Quantity: 2, MaxQuantity: 5},
		{ID: "b", UnitPrice: dec("9.20"), Quantity: 1, MaxQuantity: 5},
	}}

	assert.Equal(t, 3, c.ItemCount())
	assertDecimal(t, "26.00", c.Subtotal())
	assertDecimal(t, "16.80", c.Items[0].LineTotal())

	_, ok := c.FindItem("zzz")
	assert.False(t, ok)
}

func TestNewCart(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	c := NewCart("user-1", "GHS", now, 24*time.Hour)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, "GHS", c.Currency)
	assert.Equal(t, 0, c.Version)
	assert.Equal(t, now.Add(24*time.Hour), c.ExpiresAt)
	assert.NotNil(t, c.Items)
}

func TestOutOfStockMessage(t *testing.T) {
	assert.Equal(t, "Only 3 in stock.", OutOfStockMessage(3))
	assert.Equal(t, "Out of stock.", OutOfStockMessage(0))
}
