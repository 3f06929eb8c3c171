// Package sqlstore implements the storage interfaces on a relational database.
// MySQL and PostgreSQL are supported; queries are written with '?'
// placeholders and rebound for the connection's driver.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fastfood-labs/order_service/internal/app/domain/client"
	"github.com/fastfood-labs/order_service/internal/app/domain/order"
	"github.com/fastfood-labs/order_service/internal/app/domain/product"
	"github.com/fastfood-labs/order_service/internal/app/storage"
)

// DefaultQueryTimeout bounds every statement when no timeout is configured.
const DefaultQueryTimeout = 30 * time.Second

// Store implements the storage interfaces backed by MySQL or PostgreSQL.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ storage.ProductStore = (*Store)(nil)
var _ storage.ClientStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)

// New creates a Store using the provided database handle. The handle's driver
// name selects the placeholder style and how generated ids are read back.
func New(db *sqlx.DB, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &Store{db: db, timeout: queryTimeout}
}

func (s *Store) postgres() bool {
	return s.db.DriverName() == "postgres" || s.db.DriverName() == "pgx"
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// insert runs an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.postgres() {
		var id int64
		err := s.db.QueryRowxContext(ctx, s.db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// update runs an UPDATE and maps zero affected rows to storage.ErrNotFound.
// MySQL reports zero rows when values are unchanged, so callers check
// existence before updating and this only guards concurrent deletes.
func (s *Store) update(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	if s.postgres() {
		rows, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "rows affected")
		}
		if rows == 0 {
			return storage.ErrNotFound
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// --- ProductStore -----------------------------------------------------------

const productColumns = `id, name, category, price, description`

func (s *Store) ListProducts(ctx context.Context) ([]product.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := []product.Product{}
	if err := s.db.SelectContext(ctx, &result, `SELECT `+productColumns+` FROM products ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return result, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.getProduct(ctx, id)
}

func (s *Store) getProduct(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		return product.Product{}, errors.Wrapf(notFound(err), "get product %d", id)
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, fields product.Fields) (product.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.insert(ctx,
		`INSERT INTO products (name, category, price, description) VALUES (?, ?, ?, ?)`,
		fields.Name, string(fields.Category), fields.Price, fields.Description)
	if err != nil {
		return product.Product{}, errors.Wrap(err, "create product")
	}
	return s.getProduct(ctx, id)
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, fields product.Fields) (product.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.update(ctx,
		`UPDATE products SET name = ?, category = ?, price = ?, description = ? WHERE id = ?`,
		fields.Name, string(fields.Category), fields.Price, fields.Description, id)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "update product %d", id)
	}
	return s.getProduct(ctx, id)
}

// --- ClientStore ------------------------------------------------------------

const clientColumns = `id, name, cpf`

func (s *Store) ListClients(ctx context.Context) ([]client.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := []client.Client{}
	if err := s.db.SelectContext(ctx, &result, `SELECT `+clientColumns+` FROM clients ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "list clients")
	}
	return result, nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (client.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.getClient(ctx, id)
}

func (s *Store) getClient(ctx context.Context, id int64) (client.Client, error) {
	var c client.Client
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`SELECT `+clientColumns+` FROM clients WHERE id = ?`), id)
	if err != nil {
		return client.Client{}, errors.Wrapf(notFound(err), "get client %d", id)
	}
	return c, nil
}

func (s *Store) GetClientByCPF(ctx context.Context, cpf string) (client.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var c client.Client
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`SELECT `+clientColumns+` FROM clients WHERE cpf = ?`), cpf)
	if err != nil {
		return client.Client{}, errors.Wrap(notFound(err), "get client by cpf")
	}
	return c, nil
}

func (s *Store) CreateClient(ctx context.Context, name, cpf string) (client.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.insert(ctx, `INSERT INTO clients (name, cpf) VALUES (?, ?)`, name, cpf)
	if err != nil {
		return client.Client{}, errors.Wrap(err, "create client")
	}
	return s.getClient(ctx, id)
}

func (s *Store) UpdateClientName(ctx context.Context, id int64, name string) (client.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.update(ctx, `UPDATE clients SET name = ? WHERE id = ?`, name, id); err != nil {
		return client.Client{}, errors.Wrapf(err, "update client %d", id)
	}
	return s.getClient(ctx, id)
}

// --- OrderStore -------------------------------------------------------------

const orderColumns = `id, client_id, total_price, status, products`

func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := []order.Order{}
	if err := s.db.SelectContext(ctx, &result, `SELECT `+orderColumns+` FROM orders ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return result, nil
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := []order.Order{}
	query := s.db.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE status = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &result, query, string(status)); err != nil {
		return nil, errors.Wrapf(err, "list orders with status %q", status)
	}
	return result, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.getOrder(ctx, id)
}

func (s *Store) getOrder(ctx context.Context, id int64) (order.Order, error) {
	var o order.Order
	err := s.db.GetContext(ctx, &o, s.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if err != nil {
		return order.Order{}, errors.Wrapf(notFound(err), "get order %d", id)
	}
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	products, err := encodeLineItems(ord.Products)
	if err != nil {
		return order.Order{}, errors.Wrap(err, "encode order products")
	}
	id, err := s.insert(ctx,
		`INSERT INTO orders (client_id, total_price, status, products) VALUES (?, ?, ?, ?)`,
		ord.ClientID, ord.TotalPrice, string(ord.Status), products)
	if err != nil {
		return order.Order{}, errors.Wrap(err, "create order")
	}
	return s.getOrder(ctx, id)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status order.Status) (order.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.update(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id); err != nil {
		return order.Order{}, errors.Wrapf(err, "update order %d", id)
	}
	return s.getOrder(ctx, id)
}

// encodeLineItems renders the products column as text; lib/pq sends []byte
// parameters as bytea, which a json column rejects.
func encodeLineItems(items order.LineItems) (string, error) {
	v, err := items.Value()
	if err != nil {
		return "", err
	}
	return string(v.([]byte)), nil
}
