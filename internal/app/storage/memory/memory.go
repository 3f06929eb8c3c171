package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastfood-labs/order_service/internal/app/domain/client"
	"github.com/fastfood-labs/order_service/internal/app/domain/order"
	"github.com/fastfood-labs/order_service/internal/app/domain/product"
	"github.com/fastfood-labs/order_service/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
// It mirrors the relational constraints: unique client CPF and the order to
// client reference.
type Store struct {
	mu            sync.RWMutex
	nextProductID int64
	nextClientID  int64
	nextOrderID   int64
	products      map[int64]product.Product
	clients       map[int64]client.Client
	clientsByCPF  map[string]int64
	orders        map[int64]order.Order
}

var _ storage.ProductStore = (*Store)(nil)
var _ storage.ClientStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextProductID: 1,
		nextClientID:  1,
		nextOrderID:   1,
		products:      make(map[int64]product.Product),
		clients:       make(map[int64]client.Client),
		clientsByCPF:  make(map[string]int64),
		orders:        make(map[int64]order.Order),
	}
}

// --- ProductStore -----------------------------------------------------------

func (s *Store) ListProducts(_ context.Context) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, cloneProduct(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return product.Product{}, storage.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) CreateProduct(_ context.Context, fields product.Fields) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := product.Product{
		ID:          s.nextProductID,
		Name:        fields.Name,
		Category:    fields.Category,
		Price:       fields.Price,
		Description: copyString(fields.Description),
	}
	s.nextProductID++
	s.products[p.ID] = p
	return cloneProduct(p), nil
}

func (s *Store) UpdateProduct(_ context.Context, id int64, fields product.Fields) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return product.Product{}, storage.ErrNotFound
	}
	p := product.Product{
		ID:          id,
		Name:        fields.Name,
		Category:    fields.Category,
		Price:       fields.Price,
		Description: copyString(fields.Description),
	}
	s.products[id] = p
	return cloneProduct(p), nil
}

// --- ClientStore ------------------------------------------------------------

func (s *Store) ListClients(_ context.Context) ([]client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]client.Client, 0, len(s.clients))
	for _, c := range s.clients {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetClient(_ context.Context, id int64) (client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return client.Client{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetClientByCPF(_ context.Context, cpf string) (client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.clientsByCPF[cpf]
	if !ok {
		return client.Client{}, storage.ErrNotFound
	}
	return s.clients[id], nil
}

func (s *Store) CreateClient(_ context.Context, name, cpf string) (client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clientsByCPF[cpf]; exists {
		return client.Client{}, fmt.Errorf("duplicate entry '%s' for key 'clients.cpf'", cpf)
	}
	c := client.Client{ID: s.nextClientID, Name: name, CPF: cpf}
	s.nextClientID++
	s.clients[c.ID] = c
	s.clientsByCPF[cpf] = c.ID
	return c, nil
}

func (s *Store) UpdateClientName(_ context.Context, id int64, name string) (client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return client.Client{}, storage.ErrNotFound
	}
	c.Name = name
	s.clients[id] = c
	return c, nil
}

// --- OrderStore -------------------------------------------------------------

func (s *Store) ListOrders(_ context.Context) ([]order.Order, error) {
	return s.listOrders(func(order.Order) bool { return true }), nil
}

func (s *Store) ListOrdersByStatus(_ context.Context, status order.Status) ([]order.Order, error) {
	return s.listOrders(func(o order.Order) bool { return o.Status == status }), nil
}

func (s *Store) listOrders(keep func(order.Order) bool) []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			result = append(result, cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *Store) GetOrder(_ context.Context, id int64) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) CreateOrder(_ context.Context, ord order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[ord.ClientID]; !ok {
		return order.Order{}, fmt.Errorf("foreign key constraint fails: client %d does not exist", ord.ClientID)
	}
	ord.ID = s.nextOrderID
	s.nextOrderID++
	ord = cloneOrder(ord)
	s.orders[ord.ID] = ord
	return cloneOrder(ord), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id int64, status order.Status) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	o.Status = status
	s.orders[id] = o
	return cloneOrder(o), nil
}

// --- helpers ----------------------------------------------------------------

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneProduct(p product.Product) product.Product {
	p.Description = copyString(p.Description)
	return p
}

func cloneOrder(o order.Order) order.Order {
	items := make(order.LineItems, 0, len(o.Products))
	for _, item := range o.Products {
		cp := make(order.LineItem, len(item))
		for k, v := range item {
			cp[k] = v
		}
		items = append(items, cp)
	}
	o.Products = items
	return o
}
