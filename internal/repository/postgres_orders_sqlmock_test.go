package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newMockOrderStore(t *testing.T) (*OrderStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return &OrderStore{db: db, now: func() time.Time { return fixedNow }}, mock
}

func summerFields() domain.OrderFields {
	return domain.OrderFields{
		Owner:          "alice",
		Subtotal:       decimal.RequireFromString("90.00"),
		DeliveryOption: "standard",
		DeliveryPrice:  decimal.RequireFromString("4.99"),
		PromoCode:      "SUMMER10",
		Discount:       decimal.RequireFromString("0.1"),
		Total:          decimal.RequireFromString("94.99"),
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Gadget", Quantity: 2, UnitPrice: decimal.RequireFromString("50.00")},
		},
	}
}

func TestOrderStoreSQL_CreateOrder(t *testing.T) {
	store, mock := newMockOrderStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (" + orderColumns + ")")).
		WithArgs(sqlmock.AnyArg(), "Order-2026-05-01T09:30:00Z", "alice", sqlmock.AnyArg(), "standard",
			sqlmock.AnyArg(), "SUMMER10", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	order, err := store.CreateOrder(context.Background(), summerFields())
	require.NoError(t, err)
	assert.Equal(t, "Order-2026-05-01T09:30:00Z", order.Name)
	assert.Equal(t, fixedNow, order.CreatedAt)
}

func TestOrderStoreSQL_CreateOrderErrors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
		message string
	}{
		{name: "unique violation", dbErr: &pq.Error{Code: "23505"}, wantErr: domain.ErrDuplicateOrder},
		{name: "other failure", dbErr: errors.New("connection reset"), message: "insert order: connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockOrderStore(t)
			mock.ExpectExec("INSERT INTO orders").WillReturnError(tt.dbErr)

			_, err := store.CreateOrder(context.Background(), summerFields())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.message != "" {
				assert.EqualError(t, err, tt.message)
			}
		})
	}
}

func TestOrderStoreSQL_ListOrders(t *testing.T) {
	store, mock := newMockOrderStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "name", "owner", "subtotal", "delivery_option", "delivery_price",
		"promo_code", "discount", "total", "items", "created_at",
	}).AddRow(
		"9b2f3c1e-4d5a-4e6f-8a7b-1c2d3e4f5a6b", "Order-1", "alice", "90.00", "standard", "4.99",
		"SUMMER10", "0.1", "94.99", []byte(`[{"product_id":1,"name":"Gadget","quantity":2,"unit_price":"50"}]`), fixedNow,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE owner = $1 ORDER BY created_at DESC")).
		WithArgs("alice").
		WillReturnRows(rows)

	orders, err := store.ListOrders(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "94.99", orders[0].Total.StringFixed(2))
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
}

func TestOrderStoreSQL_ListOrdersBadItems(t *testing.T) {
	store, mock := newMockOrderStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "name", "owner", "subtotal", "delivery_option", "delivery_price",
		"promo_code", "discount", "total", "items", "created_at",
	}).AddRow(
		"9b2f3c1e-4d5a-4e6f-8a7b-1c2d3e4f5a6b", "Order-1", "alice", "90.00", "standard", "4.99",
		"", "0", "94.99", []byte(`{`), fixedNow,
	)
	mock.ExpectQuery("FROM orders").WithArgs("alice").WillReturnRows(rows)

	_, err := store.ListOrders(context.Background(), "alice")
	require.ErrorContains(t, err, "unmarshal order items")
}

func TestOrderStoreSQL_ListOrdersEmpty(t *testing.T) {
	store, mock := newMockOrderStore(t)
	mock.ExpectQuery("FROM orders").WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	orders, err := store.ListOrders(context.Background(), "bob")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}
