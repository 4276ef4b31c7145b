package shutdown

import (
	"context"
	"testing"
	"time"
)

func TestShutdownRunsCleanupsInReverse(t *testing.T) {
	h := New(context.Background())

	var order []int
	h.AddCleanup(func() { order = append(order, 1) })
	h.AddCleanup(func() { order = append(order, 2) })

	h.Shutdown()
	h.Shutdown()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("order = %v, want [2 1]", order)
	}
	if h.Context().Err() == nil {
		t.Error("context not cancelled")
	}
}

func TestParentCancelTriggersShutdown(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := New(parent)

	ran := make(chan struct{})
	h.AddCleanup(func() { close(ran) })
	h.Listen()
	cancel()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not run after parent cancel")
	}
	h.Wait()
}
