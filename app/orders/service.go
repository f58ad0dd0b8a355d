package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/events"
	"github.com/mytheresa/go-order-management/models"
)

// OrderStore runs the add-item unit of work in a single transaction.
type OrderStore interface {
	Transaction(ctx context.Context, fn func(tx models.OrderTx) error) error
}

// ReportInvalidator drops cached reports that an order change makes stale.
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// AddItemResult describes the item and order state after AddItemToOrder.
type AddItemResult struct {
	OrderID    uint
	Item       models.OrderItem
	Subtotal   decimal.Decimal
	OrderTotal decimal.Decimal
}

// OrderService mutates orders.
type OrderService struct {
	store     OrderStore
	publisher events.Publisher
	reports   ReportInvalidator
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrderService creates the service. reports may be nil when reports
// are not cached.
func NewOrderService(store OrderStore, publisher events.Publisher, reports ReportInvalidator, logger *zap.Logger, tracer trace.Tracer) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// AddItemToOrder adds quantity units of a product to an order.
//
// If the order already has an item for the product its quantity is
// increased and its price_at_time reset to the current product price;
// otherwise a new item is created. Stock is decremented and the order
// total recomputed from all items. Everything happens in one transaction:
// on any error nothing is persisted and the error is returned unchanged.
//
// Lookup and stock failures are reported as models.ErrOrderNotFound,
// models.ErrProductNotFound and *models.InsufficientStockError.
func (s *OrderService) AddItemToOrder(ctx context.Context, orderID, productID uint, quantity int) (*AddItemResult, error) {
	ctx, span := s.tracer.Start(ctx, "orders.add_item")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int64("product.id", int64(productID)),
		attribute.Int("item.quantity", quantity),
	)

	if quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}

	var result AddItemResult
	err := s.store.Transaction(ctx, func(tx models.OrderTx) error {
		order, err := tx.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		product, err := tx.FindProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if err := models.CheckStock(product, quantity); err != nil {
			return err
		}

		item := order.ItemFor(product.ID)
		if item == nil {
			item = &models.OrderItem{OrderID: order.ID, ProductID: product.ID}
		}
		item.Quantity += quantity
		item.PriceAtTime = product.Price

		if err := tx.DecrementStock(ctx, product.ID, quantity); err != nil {
			return err
		}
		if err := tx.SaveItem(ctx, item); err != nil {
			return err
		}

		items, err := tx.ListItems(ctx, order.ID)
		if err != nil {
			return err
		}
		total := models.OrderTotal(items)
		if err := tx.UpdateOrderTotal(ctx, order.ID, total); err != nil {
			return err
		}

		result = AddItemResult{
			OrderID:    order.ID,
			Item:       *item,
			Subtotal:   item.Subtotal(),
			OrderTotal: total,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logFailure(orderID, productID, quantity, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.total", result.OrderTotal.String()))
	s.logger.Info("item added to order",
		zap.Uint("order_id", result.OrderID),
		zap.Uint("item_id", result.Item.ID),
		zap.Uint("product_id", productID),
		zap.Int("quantity", result.Item.Quantity),
		zap.String("order_total", result.OrderTotal.String()),
	)

	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}
	s.publish(ctx, result)
	return &result, nil
}

// publish emits the ItemAdded event. The mutation is already committed,
// so failures are only logged.
func (s *OrderService) publish(ctx context.Context, result AddItemResult) {
	event := events.ItemAdded{
		OrderID:     result.OrderID,
		ItemID:      result.Item.ID,
		ProductID:   result.Item.ProductID,
		Quantity:    result.Item.Quantity,
		PriceAtTime: result.Item.PriceAtTime,
		Subtotal:    result.Subtotal,
		OrderTotal:  result.OrderTotal,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishItemAdded(ctx, event); err != nil {
		s.logger.Error("failed to publish item added event",
			zap.Uint("order_id", result.OrderID),
			zap.Error(err),
		)
	}
}

func (s *OrderService) logFailure(orderID, productID uint, quantity int, err error) {
	fields := []zap.Field{
		zap.Uint("order_id", orderID),
		zap.Uint("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Error(err),
	}

	var stockErr *models.InsufficientStockError
	switch {
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.As(err, &stockErr):
		s.logger.Info("add item rejected", fields...)
	default:
		s.logger.Error("add item failed, transaction rolled back", fields...)
	}
}
