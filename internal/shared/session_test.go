package shared

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *ActorResolver {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewActorResolver(client, time.Hour)
}

func TestResolveBearerToken(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	actor := Actor{ID: 7, Name: "Wira", Email: "wira@chairline.test", Role: RoleWarehouse, Department: "warehouse", Location: "WAREHOUSE-A"}
	require.NoError(t, resolver.Provision(ctx, "tok-123", actor))

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set("Authorization", "Bearer tok-123")

	got, err := resolver.Resolve(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, RoleWarehouse, got.Role)
	require.Equal(t, "WAREHOUSE-A", got.Location)
}

func TestResolveCookieFallback(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	require.NoError(t, resolver.Provision(ctx, "tok-cookie", Actor{ID: 3, Role: RoleSales, Department: "sales"}))

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set("Cookie", sessionCookieName+"=tok-cookie")

	got, err := resolver.Resolve(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(3), got.ID)
}

func TestResolveMissingSession(t *testing.T) {
	resolver := newTestResolver(t)

	req := httptest.NewRequest("GET", "/orders", nil)
	_, err := resolver.Resolve(context.Background(), req)
	require.ErrorIs(t, err, ErrNoSession)

	req.Header.Set("Authorization", "Bearer unknown")
	_, err = resolver.Resolve(context.Background(), req)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRevoke(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	require.NoError(t, resolver.Provision(ctx, "tok-gone", Actor{ID: 5, Role: RoleFitting, Department: "fitting"}))
	require.NoError(t, resolver.Revoke(ctx, "tok-gone"))

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set("Authorization", "Bearer tok-gone")
	_, err := resolver.Resolve(ctx, req)
	require.ErrorIs(t, err, ErrNoSession)
}
