package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-micro.dev/v5/registry"

	pkgRegistry "github.com/goadmin/pkg/registry"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"path":      r.URL.Path,
			"forwarded": r.Header.Get("X-Forwarded-For"),
		})
	}))
	t.Cleanup(backend.Close)
	return backend
}

func registerBackend(t *testing.T, reg registry.Registry, name, basePath, addr string) {
	t.Helper()
	svc := pkgRegistry.NewServiceBuilder(name, "v1.0.0").
		WithAddress(addr).
		WithBasePath(basePath).
		Build()
	require.NoError(t, reg.Register(svc))
}

func newGatewayApp(gw *Gateway) *fiber.App {
	app := fiber.New()
	app.All(APIVersion+"/*", gw.GetHandler())
	return app
}

func TestSyncRoutesFromRegistry(t *testing.T) {
	reg := pkgRegistry.NewMemoryRegistry()
	registerBackend(t, reg, "system-service", "system", "127.0.0.1:3000")

	gw := NewGateway(reg)
	require.NoError(t, gw.SyncRoutes())

	routes := gw.GetRoutes()
	require.Len(t, routes, 1)
	route, ok := routes["/api/v1/system"]
	require.True(t, ok)
	assert.Equal(t, "system-service", route.ServiceName)
}

func TestSyncRoutesRemovesDeparted(t *testing.T) {
	reg := pkgRegistry.NewMemoryRegistry()
	registerBackend(t, reg, "system-service", "system", "127.0.0.1:3000")

	gw := NewGateway(reg)
	require.NoError(t, gw.SyncRoutes())
	require.Len(t, gw.GetRoutes(), 1)

	svcs, err := reg.GetService("system-service")
	require.NoError(t, err)
	require.NoError(t, reg.Deregister(svcs[0]))

	require.NoError(t, gw.SyncRoutes())
	assert.Empty(t, gw.GetRoutes())
}

func TestProxyStripsVersionPrefix(t *testing.T) {
	backend := newBackend(t)
	addr := strings.TrimPrefix(backend.URL, "http://")

	reg := pkgRegistry.NewMemoryRegistry()
	registerBackend(t, reg, "system-service", "system", addr)

	gw := NewGateway(reg)
	require.NoError(t, gw.SyncRoutes())

	app := newGatewayApp(gw)
	req := httptest.NewRequest("GET", "/api/v1/system/auth/get-permission-info", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var echoed map[string]string
	require.NoError(t, json.Unmarshal(body, &echoed))
	assert.Equal(t, "/system/auth/get-permission-info", echoed["path"])
	assert.NotEmpty(t, echoed["forwarded"])
}

func TestProxyUnknownRoute(t *testing.T) {
	gw := NewGateway(pkgRegistry.NewMemoryRegistry())
	app := newGatewayApp(gw)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/nowhere/thing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}

func TestProxyServiceGone(t *testing.T) {
	reg := pkgRegistry.NewMemoryRegistry()
	registerBackend(t, reg, "system-service", "system", "127.0.0.1:3000")

	gw := NewGateway(reg)
	require.NoError(t, gw.SyncRoutes())

	// 路由还在，但服务已从注册中心消失
	svcs, err := reg.GetService("system-service")
	require.NoError(t, err)
	require.NoError(t, reg.Deregister(svcs[0]))

	app := newGatewayApp(gw)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/system/thing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 50*time.Millisecond)
	assert.Equal(t, stateClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.Failure()
	cb.Failure()
	assert.Equal(t, stateClosed, cb.State())

	cb.Failure()
	assert.Equal(t, stateOpen, cb.State())
	assert.False(t, cb.Allow())

	// 超时后进入半开，放行一次探测
	time.Sleep(60 * time.Millisecond)
	assert.True(t, cb.Allow())
	assert.Equal(t, stateHalfOpen, cb.State())

	cb.Success()
	assert.Equal(t, stateClosed, cb.State())
	assert.Zero(t, cb.failures)
}

func TestCircuitBreakerShortCircuitsRequests(t *testing.T) {
	reg := pkgRegistry.NewMemoryRegistry()
	registerBackend(t, reg, "system-service", "system", "127.0.0.1:3000")

	gw := NewGateway(reg)
	require.NoError(t, gw.SyncRoutes())

	svcs, err := reg.GetService("system-service")
	require.NoError(t, err)
	require.NoError(t, reg.Deregister(svcs[0]))

	app := newGatewayApp(gw)
	// 连续失败触发熔断
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/system/thing", nil))
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, stateOpen, gw.breaker("system-service").State())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/system/thing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)
}
