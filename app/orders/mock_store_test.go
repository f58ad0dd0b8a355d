package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mytheresa/go-order-management/events"
	"github.com/mytheresa/go-order-management/models"
)

// --- In-memory store ---

// MemoryStore is a transactional in-memory OrderStore. A transaction works
// on the live maps and restores a snapshot when fn fails.
type MemoryStore struct {
	Orders   map[uint]models.Order
	Products map[uint]models.Product
	Items    map[uint]models.OrderItem

	// FailOn makes the named OrderTx method return the error.
	FailOn map[string]error

	Commits   int
	Rollbacks int

	nextItemID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Orders:   map[uint]models.Order{},
		Products: map[uint]models.Product{},
		Items:    map[uint]models.OrderItem{},
		FailOn:   map[string]error{},
	}
}

type snapshot struct {
	orders     map[uint]models.Order
	products   map[uint]models.Product
	items      map[uint]models.OrderItem
	nextItemID uint
}

func (m *MemoryStore) snapshot() snapshot {
	s := snapshot{
		orders:     make(map[uint]models.Order, len(m.Orders)),
		products:   make(map[uint]models.Product, len(m.Products)),
		items:      make(map[uint]models.OrderItem, len(m.Items)),
		nextItemID: m.nextItemID,
	}
	for k, v := range m.Orders {
		s.orders[k] = v
	}
	for k, v := range m.Products {
		s.products[k] = v
	}
	for k, v := range m.Items {
		s.items[k] = v
	}
	return s
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx models.OrderTx) error) error {
	before := m.snapshot()
	if err := fn(&memoryTx{store: m}); err != nil {
		m.Orders, m.Products, m.Items, m.nextItemID = before.orders, before.products, before.items, before.nextItemID
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

func (m *MemoryStore) itemsOf(orderID uint) []models.OrderItem {
	var items []models.OrderItem
	for _, item := range m.Items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

type memoryTx struct {
	store *MemoryStore
}

func (t *memoryTx) fail(method string) error {
	return t.store.FailOn[method]
}

func (t *memoryTx) FindOrderForUpdate(_ context.Context, id uint) (*models.Order, error) {
	if err := t.fail("FindOrderForUpdate"); err != nil {
		return nil, err
	}
	order, ok := t.store.Orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	order.Items = t.store.itemsOf(id)
	return &order, nil
}

func (t *memoryTx) FindProductForUpdate(_ context.Context, id uint) (*models.Product, error) {
	if err := t.fail("FindProductForUpdate"); err != nil {
		return nil, err
	}
	product, ok := t.store.Products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &product, nil
}

func (t *memoryTx) DecrementStock(_ context.Context, productID uint, quantity int) error {
	if err := t.fail("DecrementStock"); err != nil {
		return err
	}
	product := t.store.Products[productID]
	if product.Quantity < quantity {
		return &models.InsufficientStockError{ProductID: productID, Requested: quantity, Available: product.Quantity}
	}
	product.Quantity -= quantity
	t.store.Products[productID] = product
	return nil
}

func (t *memoryTx) SaveItem(_ context.Context, item *models.OrderItem) error {
	if err := t.fail("SaveItem"); err != nil {
		return err
	}
	if item.Quantity <= 0 {
		return errors.New("violates check constraint check_quantity_positive")
	}
	if item.ID == 0 {
		for _, existing := range t.store.Items {
			if existing.OrderID == item.OrderID && existing.ProductID == item.ProductID {
				return errors.New("violates unique constraint uq_order_items_order_product")
			}
		}
		t.store.nextItemID++
		item.ID = t.store.nextItemID
	}
	t.store.Items[item.ID] = *item
	return nil
}

func (t *memoryTx) ListItems(_ context.Context, orderID uint) ([]models.OrderItem, error) {
	if err := t.fail("ListItems"); err != nil {
		return nil, err
	}
	return t.store.itemsOf(orderID), nil
}

func (t *memoryTx) UpdateOrderTotal(_ context.Context, orderID uint, total decimal.Decimal) error {
	if err := t.fail("UpdateOrderTotal"); err != nil {
		return err
	}
	order := t.store.Orders[orderID]
	order.TotalAmount = total
	t.store.Orders[orderID] = order
	return nil
}

// --- Mock publisher ---

type MockPublisher struct {
	Published []events.ItemAdded
	Err       error
}

func (m *MockPublisher) PublishItemAdded(_ context.Context, event events.ItemAdded) error {
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// --- Mock report invalidator ---

type MockReportInvalidator struct {
	Calls int
}

func (m *MockReportInvalidator) InvalidateReports(context.Context) {
	m.Calls++
}
