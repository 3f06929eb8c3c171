package products

import (
	"context"
	stderrors "errors"

	"github.com/fastfood-labs/order_service/internal/app/domain/product"
	"github.com/fastfood-labs/order_service/internal/app/storage"
	"github.com/fastfood-labs/order_service/internal/errors"
	"github.com/fastfood-labs/order_service/internal/logging"
)

// Create is the body accepted for both creating and replacing a product.
type Create struct {
	Name        string           `json:"name" validate:"required"`
	Category    product.Category `json:"category" validate:"required,product_category"`
	Price       *float64         `json:"price" validate:"required"`
	Description *string          `json:"description"`
}

// Fields converts the request into the store's replaceable attributes.
func (c Create) Fields() product.Fields {
	var price float64
	if c.Price != nil {
		price = *c.Price
	}
	return product.Fields{Name: c.Name, Category: c.Category, Price: price, Description: c.Description}
}

// Response is the wire view of a product.
type Response struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Category    product.Category `json:"category"`
	Price       float64          `json:"price"`
	Description *string          `json:"description"`
}

// ListResponse wraps a product listing.
type ListResponse struct {
	Products []Response `json:"products"`
}

func toResponse(p product.Product) Response {
	return Response{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price, Description: p.Description}
}

// Service manages the product catalogue.
type Service struct {
	store storage.ProductStore
	log   *logging.Logger
}

// New constructs a product service.
func New(store storage.ProductStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("products")
	}
	return &Service{store: store, log: log}
}

// List returns every product ordered by id.
func (s *Service) List(ctx context.Context) (ListResponse, error) {
	items, err := s.store.ListProducts(ctx)
	if err != nil {
		return ListResponse{}, err
	}
	out := ListResponse{Products: make([]Response, 0, len(items))}
	for _, p := range items {
		out.Products = append(out.Products, toResponse(p))
	}
	return out, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return Response{}, mapNotFound(err, id)
	}
	return toResponse(p), nil
}

// Create adds a product to the catalogue.
func (s *Service) Create(ctx context.Context, req Create) (Response, error) {
	p, err := s.store.CreateProduct(ctx, req.Fields())
	if err != nil {
		return Response{}, err
	}
	s.log.WithContext(ctx).
		WithField("product_id", p.ID).
		WithField("category", p.Category).
		Info("product created")
	return toResponse(p), nil
}

// Update replaces every field of an existing product.
func (s *Service) Update(ctx context.Context, id int64, req Create) (Response, error) {
	if _, err := s.store.GetProduct(ctx, id); err != nil {
		return Response{}, mapNotFound(err, id)
	}
	p, err := s.store.UpdateProduct(ctx, id, req.Fields())
	if err != nil {
		return Response{}, mapNotFound(err, id)
	}
	s.log.WithContext(ctx).WithField("product_id", id).Info("product updated")
	return toResponse(p), nil
}

func mapNotFound(err error, id int64) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotFound("Product", "ID", id)
	}
	return err
}
