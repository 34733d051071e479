package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrderStore struct {
	db  *sql.DB
	now func() time.Time
}

const orderColumns = `id, name, owner, subtotal, delivery_option, delivery_price, promo_code, discount, total, items, created_at`

func NewOrderStore(cred *Credentials) (*OrderStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &OrderStore{db: db, now: time.Now}, nil
}

func (r *OrderStore) RunMigrations() error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	return runMigrations("migrations/orders", "postgres", driver)
}

func (r *OrderStore) CreateOrder(ctx context.Context, fields domain.OrderFields) (*domain.Order, error) {
	order := newOrder(fields, r.now())

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		order.Name,
		order.Owner,
		order.Subtotal,
		order.DeliveryOption,
		order.DeliveryPrice,
		order.PromoCode,
		order.Discount,
		order.Total,
		itemsJSON,
		order.CreatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return nil, domain.ErrDuplicateOrder
		}
		return nil, fmt.Errorf("insert order: %w", insertErr)
	}
	return order, nil
}

func (r *OrderStore) ListOrders(ctx context.Context, owner string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE owner = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query orders by owner: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		var order domain.Order
		var itemsJSON []byte
		if err := rows.Scan(
			&order.ID,
			&order.Name,
			&order.Owner,
			&order.Subtotal,
			&order.DeliveryOption,
			&order.DeliveryPrice,
			&order.PromoCode,
			&order.Discount,
			&order.Total,
			&itemsJSON,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *OrderStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *OrderStore) Close() error {
	return r.db.Close()
}

// newOrder assigns identity and creation time, and fills in the default name.
func newOrder(fields domain.OrderFields, now time.Time) *domain.Order {
	if fields.Name == "" {
		fields.Name = domain.DefaultOrderName(now)
	}
	if fields.Items == nil {
		fields.Items = []domain.OrderItem{}
	}
	return &domain.Order{
		ID:          uuid.New(),
		OrderFields: fields,
		CreatedAt:   now.UTC().Truncate(time.Microsecond),
	}
}
