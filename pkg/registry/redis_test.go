package registry

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-micro.dev/v5/registry"

	"github.com/goadmin/pkg/database"
)

func newRedisRegistry(t *testing.T) registry.Registry {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRegistry(database.NewCacheWithClient(client, "goadmin"))
}

func buildService(name, basePath, addr string) *registry.Service {
	return NewServiceBuilder(name, "v1.0.0").
		WithAddress(addr).
		WithBasePath(basePath).
		Build()
}

func TestRedisRegistryRoundTrip(t *testing.T) {
	reg := newRedisRegistry(t)
	svc := buildService("system-service", "system", "127.0.0.1:3000")

	require.NoError(t, reg.Register(svc))

	got, err := reg.GetService("system-service")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "system-service", got[0].Name)
	require.Len(t, got[0].Nodes, 1)
	assert.Equal(t, "127.0.0.1:3000", got[0].Nodes[0].Address)
	assert.Equal(t, "system", BasePath(got[0]))

	require.NoError(t, reg.Deregister(svc))
	_, err = reg.GetService("system-service")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRedisRegistryListServices(t *testing.T) {
	reg := newRedisRegistry(t)

	require.NoError(t, reg.Register(buildService("system-service", "system", "127.0.0.1:3000")))
	require.NoError(t, reg.Register(buildService("gateway-service", "", "127.0.0.1:8080")))

	services, err := reg.ListServices()
	require.NoError(t, err)
	require.Len(t, services, 2)

	names := map[string]bool{}
	for _, s := range services {
		names[s.Name] = true
	}
	assert.True(t, names["system-service"])
	assert.True(t, names["gateway-service"])
}

func TestRedisRegistryEntryExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	reg := NewRedisRegistry(database.NewCacheWithClient(client, "goadmin"))

	svc := buildService("system-service", "system", "127.0.0.1:3000")
	require.NoError(t, reg.Register(svc))
	// 摘掉心跳，模拟节点异常退出
	reg.(*RedisRegistry).stopHeartbeat("system-service")

	mr.FastForward(ttlDuration * 2)
	_, err := reg.GetService("system-service")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestDeregisterReleasesHeartbeat(t *testing.T) {
	reg := newRedisRegistry(t)
	svc := buildService("system-service", "system", "127.0.0.1:3000")
	require.NoError(t, reg.Register(svc))

	r := reg.(*RedisRegistry)
	r.mu.Lock()
	hb := r.heartbeat["system-service"]
	r.mu.Unlock()
	require.NotNil(t, hb)

	require.NoError(t, reg.Deregister(svc))

	// 续期协程必须在注销时收到退出信号
	select {
	case <-hb.done:
	default:
		t.Fatal("heartbeat done channel still open after deregister")
	}

	r.mu.Lock()
	_, ok := r.heartbeat["system-service"]
	r.mu.Unlock()
	assert.False(t, ok)
}

func TestServiceBuilderDefaultsNodeID(t *testing.T) {
	svc := NewServiceBuilder("system-service", "v1.0.0").
		WithAddress("127.0.0.1:3000").
		Build()
	require.Len(t, svc.Nodes, 1)
	assert.Equal(t, "system-service-1", svc.Nodes[0].Id)
}
