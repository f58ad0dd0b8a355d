package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDB returns a gorm handle using the postgres dialect on top of
// sqlmock. Statements are matched as regular expressions after sqlmock
// collapses whitespace.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

var (
	orderColumns   = []string{"id", "client_id", "status", "total_amount", "created_at"}
	itemColumns    = []string{"id", "order_id", "product_id", "quantity", "price_at_time"}
	productColumns = []string{"id", "name", "quantity", "price", "category_id"}
)

const (
	selectOrderForUpdate   = `SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 ORDER BY "orders"\."id" LIMIT .+ FOR UPDATE`
	selectOrderItems       = `SELECT \* FROM "order_items" WHERE "order_items"\."order_id" = \$1 ORDER BY id`
	selectProductForUpdate = `SELECT \* FROM "products" WHERE "products"\."id" = \$1 ORDER BY "products"\."id" LIMIT .+ FOR UPDATE`
	decrementStock         = `UPDATE "products" SET "quantity"=quantity - \$1 WHERE id = \$2 AND quantity >= \$3`
	selectStock            = `SELECT quantity FROM "products" WHERE id = \$1`
	insertItem             = `INSERT INTO "order_items" \("order_id","product_id","quantity","price_at_time"\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING "id"`
	updateItem             = `UPDATE "order_items" SET "order_id"=\$1,"product_id"=\$2,"quantity"=\$3,"price_at_time"=\$4 WHERE "id" = \$5`
	listItems              = `SELECT \* FROM "order_items" WHERE order_id = \$1 ORDER BY id`
	updateOrderTotal       = `UPDATE "orders" SET "total_amount"=\$1 WHERE id = \$2`
)

func TestOrderTxFindOrderForUpdate(t *testing.T) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Locks the order and loads its items", func(t *testing.T) {
		// Arrange
		db, mock := newMockDB(t)
		tx := &orderTx{db: db}
		mock.ExpectQuery(selectOrderForUpdate).
			WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(1, 1, "pending", "7.50", created))
		mock.ExpectQuery(selectOrderItems).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(4, 1, 2, 3, "2.50"))

		// Act
		order, err := tx.FindOrderForUpdate(context.Background(), 1)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint(1), order.ID)
		assert.True(t, decimal.RequireFromString("7.50").Equal(order.TotalAmount))
		require.Len(t, order.Items, 1)
		assert.Equal(t, uint(2), order.Items[0].ProductID)
		assert.Equal(t, 3, order.Items[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing order", func(t *testing.T) {
		// Arrange
		db, mock := newMockDB(t)
		tx := &orderTx{db: db}
		mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(sqlmock.NewRows(orderColumns))

		// Act
		order, err := tx.FindOrderForUpdate(context.Background(), 9)

		// Assert
		assert.Nil(t, order)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderTxFindProductForUpdate(t *testing.T) {
	t.Run("Locks the product", func(t *testing.T) {
		db, mock := newMockDB(t)
		tx := &orderTx{db: db}
		mock.ExpectQuery(selectProductForUpdate).
			WillReturnRows(sqlmock.NewRows(productColumns).AddRow(2, "Product A", 10, "2.50", nil))

		product, err := tx.FindProductForUpdate(context.Background(), 2)

		require.NoError(t, err)
		assert.Equal(t, "Product A", product.Name)
		assert.Equal(t, 10, product.Quantity)
		assert.Nil(t, product.CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing product", func(t *testing.T) {
		db, mock := newMockDB(t)
		tx := &orderTx{db: db}
		mock.ExpectQuery(selectProductForUpdate).WillReturnRows(sqlmock.NewRows(productColumns))

		product, err := tx.FindProductForUpdate(context.Background(), 2)

		assert.Nil(t, product)
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderTxDecrementStock(t *testing.T) {
	testCases := []struct {
		name          string
		mockSetup     func(mock sqlmock.Sqlmock)
		expectedError error
		checkError    func(t *testing.T, err error)
	}{
		{
			name: "Enough stock",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(decrementStock).
					WithArgs(3, 1, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "No row updated re-reads the available stock",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(decrementStock).
					WithArgs(3, 1, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(selectStock).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
			},
			checkError: func(t *testing.T, err error) {
				var stockErr *InsufficientStockError
				require.ErrorAs(t, err, &stockErr)
				assert.Equal(t, InsufficientStockError{ProductID: 1, Requested: 3, Available: 1}, *stockErr)
			},
		},
		{
			name: "Update failure",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(decrementStock).
					WithArgs(3, 1, 3).
					WillReturnError(errors.New("connection lost"))
			},
			checkError: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "connection lost")
				var stockErr *InsufficientStockError
				assert.False(t, errors.As(err, &stockErr))
			},
		},
		{
			name: "Re-read failure",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(decrementStock).
					WithArgs(3, 1, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(selectStock).
					WithArgs(1).
					WillReturnError(errors.New("connection lost"))
			},
			checkError: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "connection lost")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			db, mock := newMockDB(t)
			tx := &orderTx{db: db}
			tc.mockSetup(mock)

			// Act
			err := tx.DecrementStock(context.Background(), 1, 3)

			// Assert
			if tc.checkError == nil {
				assert.NoError(t, err)
			} else {
				tc.checkError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderTxSaveItem(t *testing.T) {
	t.Run("Inserts a new item", func(t *testing.T) {
		// Arrange
		db, mock := newMockDB(t)
		tx := &orderTx{db: db}
		price := decimal.RequireFromString("2.50")
		item := &OrderItem{OrderID: 1, ProductID: 2, Quantity: 3, PriceAtTime: price}
		mock.ExpectQuery(insertItem).
			WithArgs(1, 2, 3, price).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		// Act
		err := tx.SaveItem(context.Background(), item)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint(7), item.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Updates an existing item", func(t *testing.T) {
		// Arrange
		db, mock := newMockDB(t)
		tx := &orderTx{db: db}
		price := decimal.RequireFromString("3.00")
		item := &OrderItem{ID: 7, OrderID: 1, ProductID: 2, Quantity: 5, PriceAtTime: price}
		mock.ExpectExec(updateItem).
			WithArgs(1, 2, 5, price, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := tx.SaveItem(context.Background(), item)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderTxListItemsAndUpdateTotal(t *testing.T) {
	// Arrange
	db, mock := newMockDB(t)
	tx := &orderTx{db: db}
	mock.ExpectQuery(listItems).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow(4, 1, 1, 5, "3.00").
			AddRow(5, 1, 2, 1, "19.99"))
	total := decimal.RequireFromString("34.99")
	mock.ExpectExec(updateOrderTotal).
		WithArgs(total, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Act
	items, listErr := tx.ListItems(context.Background(), 1)
	updateErr := tx.UpdateOrderTotal(context.Background(), 1, OrderTotal(items))

	// Assert
	require.NoError(t, listErr)
	require.NoError(t, updateErr)
	assert.Len(t, items, 2)
	assert.True(t, total.Equal(OrderTotal(items)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersRepositoryTransaction(t *testing.T) {
	t.Run("Commits when fn succeeds", func(t *testing.T) {
		// Arrange
		db, mock := newMockDB(t)
		repo := NewOrdersRepository(db)
		total := decimal.RequireFromString("15.00")
		mock.ExpectBegin()
		mock.ExpectExec(updateOrderTotal).WithArgs(total, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Act
		err := repo.Transaction(context.Background(), func(tx OrderTx) error {
			return tx.UpdateOrderTotal(context.Background(), 1, total)
		})

		// Assert
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls back and returns fn's error unchanged", func(t *testing.T) {
		// Arrange
		db, mock := newMockDB(t)
		repo := NewOrdersRepository(db)
		stockErr := &InsufficientStockError{ProductID: 1, Requested: 3, Available: 1}
		mock.ExpectBegin()
		mock.ExpectExec(decrementStock).WithArgs(3, 1, 3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectStock).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
		mock.ExpectRollback()

		// Act
		err := repo.Transaction(context.Background(), func(tx OrderTx) error {
			return tx.DecrementStock(context.Background(), 1, 3)
		})

		// Assert
		var got *InsufficientStockError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, *stockErr, *got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
