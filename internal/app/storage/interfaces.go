package storage

import (
	"context"
	"errors"

	"github.com/fastfood-labs/order_service/internal/app/domain/client"
	"github.com/fastfood-labs/order_service/internal/app/domain/order"
	"github.com/fastfood-labs/order_service/internal/app/domain/product"
)

// ErrNotFound is returned by stores when no record matches the lookup.
var ErrNotFound = errors.New("storage: record not found")

// ProductStore persists menu products.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
	GetProduct(ctx context.Context, id int64) (product.Product, error)
	CreateProduct(ctx context.Context, fields product.Fields) (product.Product, error)
	// UpdateProduct replaces every field of the product.
	UpdateProduct(ctx context.Context, id int64, fields product.Fields) (product.Product, error)
}

// ClientStore persists clients. CPF uniqueness is enforced by the store.
type ClientStore interface {
	ListClients(ctx context.Context) ([]client.Client, error)
	GetClient(ctx context.Context, id int64) (client.Client, error)
	GetClientByCPF(ctx context.Context, cpf string) (client.Client, error)
	CreateClient(ctx context.Context, name, cpf string) (client.Client, error)
	UpdateClientName(ctx context.Context, id int64, name string) (client.Client, error)
}

// OrderStore persists orders. The client reference is enforced by the store.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByStatus(ctx context.Context, status order.Status) ([]order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	CreateOrder(ctx context.Context, ord order.Order) (order.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status order.Status) (order.Order, error)
}
