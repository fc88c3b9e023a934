package reqctx

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goadmin/pkg/errors"
)

func TestAccessorsOnEmptyContext(t *testing.T) {
	ctx := context.Background()

	_, err := LoginID(ctx)
	assert.ErrorIs(t, err, ErrNoContext)
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))

	ctx = With(ctx, New())
	_, err = LoginID(ctx)
	assert.ErrorIs(t, err, ErrNoLoginID)
	_, err = TenantID(ctx)
	assert.ErrorIs(t, err, ErrNoTenantID)
	assert.Equal(t, "", Token(ctx))
	assert.False(t, IsIgnoreTenant(ctx))
}

func TestAccessorsWithValues(t *testing.T) {
	rc := New().SetToken("tok").SetTenantID("t1").SetLoginID("u1").SetIgnoreTenant(true)
	ctx := With(context.Background(), rc)

	loginID, err := LoginID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", loginID)

	tenantID, err := TenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", tenantID)

	assert.Equal(t, "tok", Token(ctx))
	assert.True(t, IsIgnoreTenant(ctx))
}

func TestNoCrossRequestLeakage(t *testing.T) {
	// 并发挂载各自的上下文，互不可见
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", n)
			ctx := With(context.Background(), New().SetLoginID(id))
			for j := 0; j < 100; j++ {
				got, err := LoginID(ctx)
				if err != nil || got != id {
					t.Errorf("context leaked: want %s got %s err %v", id, got, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
