package clients

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/domain/client"
	"github.com/fastfood-labs/order_service/internal/app/metrics"
	"github.com/fastfood-labs/order_service/internal/app/storage"
	"github.com/fastfood-labs/order_service/internal/errors"
	"github.com/fastfood-labs/order_service/internal/logging"
)

// Create is the body accepted when registering a client.
type Create struct {
	Name string `json:"name" validate:"required"`
	CPF  string `json:"cpf" validate:"required"`
}

// Update is the body accepted when renaming a client. The CPF is immutable.
type Update struct {
	Name string `json:"name" validate:"required"`
}

// Response is the wire view of a client.
type Response struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

// TokenResponse is a client together with a freshly issued access token.
type TokenResponse struct {
	Response
	Token string `json:"token"`
}

// ListResponse wraps a client listing.
type ListResponse struct {
	Clients []Response `json:"clients"`
}

func toResponse(c client.Client) Response {
	return Response{ID: c.ID, Name: c.Name, CPF: c.CPF}
}

// Issuer signs access tokens.
type Issuer interface {
	Issue(claims auth.Claims) (string, error)
}

// Service manages client records and CPF identification.
type Service struct {
	store  storage.ClientStore
	tokens Issuer
	log    *logging.Logger
}

// New constructs a client service.
func New(store storage.ClientStore, tokens Issuer, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("clients")
	}
	return &Service{store: store, tokens: tokens, log: log}
}

// List returns every client ordered by id.
func (s *Service) List(ctx context.Context) (ListResponse, error) {
	items, err := s.store.ListClients(ctx)
	if err != nil {
		return ListResponse{}, err
	}
	out := ListResponse{Clients: make([]Response, 0, len(items))}
	for _, c := range items {
		out.Clients = append(out.Clients, toResponse(c))
	}
	return out, nil
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	c, err := s.store.GetClient(ctx, id)
	if err != nil {
		return Response{}, mapNotFound(err, "ID", id)
	}
	return toResponse(c), nil
}

// GetByCPF returns the client registered under cpf.
func (s *Service) GetByCPF(ctx context.Context, cpf string) (Response, error) {
	c, err := s.store.GetClientByCPF(ctx, cpf)
	if err != nil {
		return Response{}, mapNotFound(err, "CPF", cpf)
	}
	return toResponse(c), nil
}

// Create registers a client. Duplicate CPFs are rejected by the store and
// surface as internal errors.
func (s *Service) Create(ctx context.Context, req Create) (Response, error) {
	c, err := s.store.CreateClient(ctx, req.Name, req.CPF)
	if err != nil {
		return Response{}, err
	}
	s.log.WithContext(ctx).WithField("client_id", c.ID).Info("client registered")
	return toResponse(c), nil
}

// UpdateName renames an existing client.
func (s *Service) UpdateName(ctx context.Context, id int64, req Update) (Response, error) {
	if _, err := s.store.GetClient(ctx, id); err != nil {
		return Response{}, mapNotFound(err, "ID", id)
	}
	c, err := s.store.UpdateClientName(ctx, id, req.Name)
	if err != nil {
		return Response{}, mapNotFound(err, "ID", id)
	}
	s.log.WithContext(ctx).WithField("client_id", id).Info("client renamed")
	return toResponse(c), nil
}

// AuthenticateByCPF identifies a client by CPF and issues a client-role
// token whose subject is the client id.
func (s *Service) AuthenticateByCPF(ctx context.Context, cpf string) (TokenResponse, error) {
	c, err := s.GetByCPF(ctx, cpf)
	if err != nil {
		return TokenResponse{}, err
	}
	token, err := s.tokens.Issue(auth.Claims{
		Role:             auth.RoleClient,
		ClientID:         c.ID,
		CPF:              c.CPF,
		Name:             c.Name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(c.ID, 10)},
	})
	if err != nil {
		return TokenResponse{}, errors.Internal("could not issue token", err)
	}
	metrics.RecordTokenIssued(auth.RoleClient)
	s.log.WithContext(ctx).WithField("client_id", c.ID).Info("client identified by cpf")
	return TokenResponse{Response: c, Token: token}, nil
}

func mapNotFound(err error, field string, value interface{}) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotFound("Client", field, value)
	}
	return err
}
