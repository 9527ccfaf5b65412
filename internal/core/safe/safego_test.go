package safe

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitGroup_RecoversPanics(t *testing.T) {
	before := GetStats()

	var ran atomic.Int32
	wg := NewWaitGroup("test")
	wg.Go(func() { ran.Add(1) })
	wg.Go(func() { panic("boom") })
	wg.Go(func() { ran.Add(1) })
	wg.Wait()

	after := GetStats()
	assert.Equal(t, int32(2), ran.Load())
	assert.GreaterOrEqual(t, after.Total-before.Total, int64(3))
	assert.GreaterOrEqual(t, after.PanicCount-before.PanicCount, int64(1))
}

func TestGoWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	GoWithContext(ctx, "ctx", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()
	<-done
}
