package orders

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/fastfood-labs/order_service/internal/app/domain/order"
	"github.com/fastfood-labs/order_service/internal/app/metrics"
	"github.com/fastfood-labs/order_service/internal/app/storage"
	"github.com/fastfood-labs/order_service/internal/errors"
	"github.com/fastfood-labs/order_service/internal/logging"
)

// Create is the body accepted when placing an order. Status defaults to
// Recebido when omitted. client_id must be present but any value is passed
// to the store, which owns the client reference check.
type Create struct {
	ClientID   *int64          `json:"client_id" validate:"required"`
	TotalPrice *float64        `json:"total_price" validate:"required"`
	Products   order.LineItems `json:"products" validate:"required"`
	Status     order.Status    `json:"status,omitempty" validate:"omitempty,order_status"`
}

// StatusUpdate is the body accepted when moving an order to a new status.
type StatusUpdate struct {
	Status order.Status `json:"status" validate:"required,order_status"`
}

// Response is the wire view of an order.
type Response struct {
	ID         int64           `json:"id"`
	ClientID   int64           `json:"client_id"`
	TotalPrice float64         `json:"total_price"`
	Status     order.Status    `json:"status"`
	Products   order.LineItems `json:"products"`
}

// ListResponse wraps an order listing.
type ListResponse struct {
	Orders []Response `json:"orders"`
}

func toResponse(o order.Order) Response {
	products := o.Products
	if products == nil {
		products = order.LineItems{}
	}
	return Response{ID: o.ID, ClientID: o.ClientID, TotalPrice: o.TotalPrice, Status: o.Status, Products: products}
}

// Service manages orders and their status lifecycle.
type Service struct {
	store storage.OrderStore
	log   *logging.Logger
	clock func() time.Time
}

// New constructs an order service.
func New(store storage.OrderStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("orders")
	}
	return &Service{store: store, log: log, clock: time.Now}
}

// List returns every order ordered by id.
func (s *Service) List(ctx context.Context) (ListResponse, error) {
	items, err := s.store.ListOrders(ctx)
	if err != nil {
		return ListResponse{}, err
	}
	return toList(items), nil
}

// ListByStatus returns the orders currently in status.
func (s *Service) ListByStatus(ctx context.Context, status order.Status) (ListResponse, error) {
	items, err := s.store.ListOrdersByStatus(ctx, status)
	if err != nil {
		return ListResponse{}, err
	}
	return toList(items), nil
}

func toList(items []order.Order) ListResponse {
	out := ListResponse{Orders: make([]Response, 0, len(items))}
	for _, o := range items {
		out.Orders = append(out.Orders, toResponse(o))
	}
	return out
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return Response{}, mapNotFound(err, id)
	}
	return toResponse(o), nil
}

// Create places an order. The client reference is checked by the store.
func (s *Service) Create(ctx context.Context, req Create) (Response, error) {
	status := req.Status
	if status == "" {
		status = order.StatusReceived
	}
	var clientID int64
	if req.ClientID != nil {
		clientID = *req.ClientID
	}
	var total float64
	if req.TotalPrice != nil {
		total = *req.TotalPrice
	}
	o, err := s.store.CreateOrder(ctx, order.Order{
		ClientID:   clientID,
		TotalPrice: total,
		Status:     status,
		Products:   req.Products,
	})
	if err != nil {
		return Response{}, err
	}
	metrics.RecordOrderCreated()
	s.log.WithContext(ctx).
		WithField("order_id", o.ID).
		WithField("client_id", o.ClientID).
		WithField("status", o.Status).
		Info("order created")
	return toResponse(o), nil
}

// UpdateStatus moves an order to status. Any known status is accepted
// regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status order.Status) (Response, error) {
	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return Response{}, mapNotFound(err, id)
	}
	o, err := s.store.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return Response{}, mapNotFound(err, id)
	}
	metrics.RecordOrderStatusChange(string(status))
	s.log.WithContext(ctx).
		WithField("order_id", id).
		WithField("from", current.Status).
		WithField("to", status).
		Info("order status changed")
	return toResponse(o), nil
}

func mapNotFound(err error, id int64) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotFound("Order", "ID", id)
	}
	return err
}
