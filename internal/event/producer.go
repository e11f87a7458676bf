package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ghstore/internal/domain"
	pkgkafka "github.com/utafrali/ghstore/pkg/kafka"
	"github.com/utafrali/ghstore/pkg/logger"
	"github.com/utafrali/ghstore/pkg/phone"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated  = pkgkafka.Topic("cart", "updated")
	TopicCartCleared  = pkgkafka.Topic("cart", "cleared")
	TopicAddressSaved = pkgkafka.Topic("address", "saved")
)

// Aggregate types.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeAddress = "address"
)

// Event types carried in the envelope and the event_type header.
const (
	EventCartUpdated  = "cart.updated"
	EventCartCleared  = "cart.cleared"
	EventAddressSaved = "address.saved"
)

// Source identifies events published by this service.
const Source = "ghstore"

// CartUpdatedData is the payload for a cart.updated event. Money amounts are
// rendered with two decimal places.
type CartUpdatedData struct {
	CartID       string         `json:"cart_id"`
	UserID       string         `json:"user_id"`
	Version      int            `json:"version"`
	Currency     string         `json:"currency"`
	Items        []CartItemData `json:"items"`
	TotalItems   int            `json:"total_items"`
	Subtotal     string         `json:"subtotal"`
	ShippingCost string         `json:"shipping_cost"`
	Tax          string         `json:"tax"`
	Total        string         `json:"total"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id"`
}

// AddressSavedData is the payload for an address.saved event. The phone
// number is masked.
type AddressSavedData struct {
	AddressID   string `json:"address_id"`
	UserID      string `json:"user_id"`
	City        string `json:"city"`
	Region      string `json:"region,omitempty"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone,omitempty"`
	IsDefault   bool   `json:"is_default"`
}

// Publisher is implemented by Producer. Services depend on it so tests can
// substitute a recorder.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart, summary domain.Summary) error
	PublishCartCleared(ctx context.Context, cart *domain.Cart) error
	PublishAddressSaved(ctx context.Context, addr *domain.Address) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event carrying the priced
// snapshot the mutation committed.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart, summary domain.Summary) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			SKU:       item.SKU,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		CartID:       cart.ID,
		UserID:       cart.UserID,
		Version:      cart.Version,
		Currency:     cart.Currency,
		Items:        items,
		TotalItems:   summary.TotalItems,
		Subtotal:     summary.Subtotal.StringFixed(2),
		ShippingCost: summary.ShippingCost.StringFixed(2),
		Tax:          summary.Tax.StringFixed(2),
		Total:        summary.Total.StringFixed(2),
	}

	return p.publish(ctx, TopicCartUpdated, EventCartUpdated, cartAggregate(cart), cart.UserID, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cart *domain.Cart) error {
	data := CartClearedData{
		CartID: cart.ID,
		UserID: cart.UserID,
	}
	return p.publish(ctx, TopicCartCleared, EventCartCleared, cartAggregate(cart), cart.UserID, data)
}

// PublishAddressSaved publishes an address.saved event after a create,
// update or default change.
func (p *Producer) PublishAddressSaved(ctx context.Context, addr *domain.Address) error {
	data := AddressSavedData{
		AddressID:   addr.ID,
		UserID:      addr.UserID,
		City:        addr.City,
		Region:      addr.Region,
		CountryCode: addr.CountryCode,
		Phone:       phone.Mask(addr.Phone),
		IsDefault:   addr.IsDefault,
	}
	agg := pkgkafka.Aggregate{Type: AggregateTypeAddress, ID: addr.ID}
	return p.publish(ctx, TopicAddressSaved, EventAddressSaved, agg, addr.UserID, data)
}

// cartAggregate identifies a cart. Carts are keyed by user so every event for
// one shopper stays ordered on a single partition.
func cartAggregate(cart *domain.Cart) pkgkafka.Aggregate {
	return pkgkafka.Aggregate{Type: AggregateTypeCart, ID: cart.ID}
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, agg pkgkafka.Aggregate, userID string, data any) error {
	opts := []pkgkafka.Option{
		pkgkafka.WithSource(Source),
		pkgkafka.WithUserID(userID),
	}
	if agg.Type == AggregateTypeCart {
		opts = append(opts, pkgkafka.WithPartitionKey(userID))
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		opts = append(opts, pkgkafka.WithCorrelationID(id))
	}

	evt, err := pkgkafka.NewEvent(eventType, agg, data, opts...)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "domain event published",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", agg.ID),
	)
	return nil
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishCartUpdated(context.Context, *domain.Cart, domain.Summary) error {
	return nil
}

func (NopPublisher) PublishCartCleared(context.Context, *domain.Cart) error { return nil }

func (NopPublisher) PublishAddressSaved(context.Context, *domain.Address) error { return nil }
