package shutdown

import (
	"testing"
	"time"

	"before-after/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestManager_ReverseOrderOnce(t *testing.T) {
	a := assert.New(t)
	m := NewManager(logger.NewNop())

	var order []string
	m.Register("repository", Func(func() { order = append(order, "repository") }))
	m.Register("broker", Func(func() { order = append(order, "broker") }))
	m.Register("controller", Func(func() { order = append(order, "controller") }))

	m.Shutdown()
	m.Shutdown()

	a.Equal([]string{"controller", "broker", "repository"}, order)
	a.Error(m.Context().Err())
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestManager_SlowComponentTimesOut(t *testing.T) {
	a := assert.New(t)
	m := NewManagerWithTimeout(logger.NewNop(), 20*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	stopped := false
	m.Register("fast", Func(func() { stopped = true }))
	m.Register("stuck", Func(func() { <-release }))

	start := time.Now()
	m.Shutdown()

	a.True(stopped)
	a.Less(time.Since(start), 2*time.Second)
}
