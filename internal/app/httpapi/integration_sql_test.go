//go:build integration

package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/fastfood-labs/order_service/internal/app"
	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/storage/sqlstore"
	"github.com/fastfood-labs/order_service/internal/config"
	"github.com/fastfood-labs/order_service/internal/platform/database"
	"github.com/fastfood-labs/order_service/internal/platform/migrations"
)

// Runs the order flow against the database described by DB_* variables
// (a local .env is honoured). Works for both mysql and postgres.
func TestIntegrationSQL(t *testing.T) {
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set; skipping SQL integration")
	}
	cfg, err := config.Load("", ".env")
	require.NoError(t, err)
	if cfg.Database.Driver == config.DriverMemory {
		t.Skip("DB_DRIVER=memory; nothing to integrate with")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database, database.CredentialsFromConfig(cfg.Database))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migrations.Apply(ctx, db.DB, cfg.Database.Driver))

	tokens, err := auth.NewTokenService("integration-secret", "HS256", time.Hour)
	require.NoError(t, err)
	store := sqlstore.New(db, cfg.Database.QueryTimeout)
	application, err := app.New(app.Stores{Products: store, Clients: store, Orders: store}, tokens, nil)
	require.NoError(t, err)
	admin, err := tokens.Issue(auth.Claims{Role: auth.RoleAdministrator, RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"}})
	require.NoError(t, err)

	s := &testServer{t: t, handler: NewHandler(application, Options{}), tokens: tokens, admin: admin}

	cpf := fmt.Sprintf("%011d", time.Now().UnixNano()%100000000000)
	rec := s.do(http.MethodPost, "/api/clients", map[string]string{"name": "Integration", "cpf": cpf}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	clientID := decode(t, rec)["id"]

	rec = s.do(http.MethodPost, "/api/clients", map[string]string{"name": "Again", "cpf": cpf}, admin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = s.do(http.MethodPost, "/api/products", map[string]interface{}{"name": "X-Salada", "category": "Lanche", "price": 22.5}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/orders", map[string]interface{}{
		"client_id":   clientID,
		"total_price": 22.5,
		"products":    []map[string]interface{}{{"id": 1, "name": "X-Salada", "quantity": 1}},
	}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode(t, rec)
	assert.Equal(t, "Recebido", order["status"])

	path := fmt.Sprintf("/api/orders/%v/status", order["id"])
	rec = s.do(http.MethodPatch, path, map[string]string{"status": "Pronto"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/orders/%v", order["id"]), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pronto", decode(t, rec)["status"])

	rec = s.do(http.MethodGet, "/api/clients/filter?cpf="+cpf, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])
}
