package app

import (
	"errors"

	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/services/clients"
	"github.com/fastfood-labs/order_service/internal/app/services/orders"
	"github.com/fastfood-labs/order_service/internal/app/services/products"
	"github.com/fastfood-labs/order_service/internal/app/storage"
	"github.com/fastfood-labs/order_service/internal/app/storage/memory"
	"github.com/fastfood-labs/order_service/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory implementation.
type Stores struct {
	Products storage.ProductStore
	Clients  storage.ClientStore
	Orders   storage.OrderStore
}

// Application ties the domain services together.
type Application struct {
	log *logging.Logger

	Tokens   *auth.TokenService
	Products *products.Service
	Clients  *clients.Service
	Orders   *orders.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, tokens *auth.TokenService, log *logging.Logger) (*Application, error) {
	if tokens == nil {
		return nil, errors.New("app: token service is required")
	}
	if log == nil {
		log = logging.NewDefault("app")
	}

	var mem *memory.Store
	fallback := func() *memory.Store {
		if mem == nil {
			log.Warn("no persistent store configured; using in-memory storage")
			mem = memory.New()
		}
		return mem
	}
	if stores.Products == nil {
		stores.Products = fallback()
	}
	if stores.Clients == nil {
		stores.Clients = fallback()
	}
	if stores.Orders == nil {
		stores.Orders = fallback()
	}

	return &Application{
		log:      log,
		Tokens:   tokens,
		Products: products.New(stores.Products, log.Named("products")),
		Clients:  clients.New(stores.Clients, tokens, log.Named("clients")),
		Orders:   orders.New(stores.Orders, log.Named("orders")),
	}, nil
}
