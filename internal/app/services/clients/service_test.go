package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/storage/memory"
	"github.com/fastfood-labs/order_service/internal/errors"
)

var notFound = &errors.ServiceError{Code: errors.CodeNotFound}

func newService(t *testing.T) (*Service, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("token", "HS256", time.Hour)
	require.NoError(t, err)
	return New(memory.New(), tokens, nil), tokens
}

func TestCreateGetRename(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.Create(ctx, Create{Name: "Maria", CPF: "620.546.640-65"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	renamed, err := svc.UpdateName(ctx, created.ID, Update{Name: "Maria Silva"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", renamed.Name)
	assert.Equal(t, "620.546.640-65", renamed.CPF)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Clients, 1)
}

func TestDuplicateCPFIsInternal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, Create{Name: "A", CPF: "111.111.111-11"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Create{Name: "B", CPF: "111.111.111-11"})
	require.Error(t, err)
	assert.Equal(t, 500, errors.HTTPStatus(err))
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.UpdateName(ctx, 999999, Update{Name: "x"})
	assert.ErrorIs(t, err, notFound)

	_, err = svc.GetByCPF(ctx, "123")
	require.Error(t, err)
	assert.Equal(t, "Client with CPF 123 not found", errors.GetServiceError(err).Message)

	_, err = svc.AuthenticateByCPF(ctx, "123")
	assert.ErrorIs(t, err, notFound)
}

func TestAuthenticateByCPFIssuesClientToken(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newService(t)

	created, err := svc.Create(ctx, Create{Name: "Maria", CPF: "620.546.640-65"})
	require.NoError(t, err)

	resp, err := svc.AuthenticateByCPF(ctx, "620.546.640-65")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.ID)
	require.NotEmpty(t, resp.Token)

	claims, ok := tokens.Verify(resp.Token)
	require.True(t, ok)
	assert.Equal(t, auth.RoleClient, claims.Role)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, created.ID, claims.ClientID)
	assert.Equal(t, "620.546.640-65", claims.CPF)
	assert.Equal(t, "Maria", claims.Name)
}
