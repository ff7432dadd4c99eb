package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_ExclusionMutua(t *testing.T) {
	l := NewLocalLocker(2 * time.Second)
	var dentro, maximo int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "sesion:a")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&dentro, 1)
			for {
				m := atomic.LoadInt32(&maximo)
				if n <= m || atomic.CompareAndSwapInt32(&maximo, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&dentro, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maximo)
	assert.Empty(t, l.keys)
}

func TestLocalLocker_ClavesIndependientes(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)
	ctx := context.Background()

	a, err := l.Lock(ctx, "venta:a")
	require.NoError(t, err)
	defer a()

	b, err := l.Lock(ctx, "venta:b")
	require.NoError(t, err)
	b()
}

func TestLocalLocker_Timeout(t *testing.T) {
	l := NewLocalLocker(30 * time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "cliente:x")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "cliente:x")
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock() // releasing twice is a no-op

	again, err := l.Lock(ctx, "cliente:x")
	require.NoError(t, err)
	again()
}

func TestLocalLocker_ContextoCancelado(t *testing.T) {
	l := NewLocalLocker(time.Second)
	unlock, err := l.Lock(context.Background(), "sesion:z")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "sesion:z")
	assert.ErrorIs(t, err, context.Canceled)
}
