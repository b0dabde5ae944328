package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry(t *testing.T) {
	store := newStore(t)
	factory := func(id string) *View { return NewView(id, store, time.UTC, zap.NewNop()) }

	t.Run("should hand out one view per session", func(t *testing.T) {
		req := require.New(t)
		reg := NewRegistry(time.Minute, factory, zap.NewNop())
		defer reg.Close()

		a := reg.Acquire("a")
		req.Same(a, reg.Acquire("a"))
		req.NotSame(a, reg.Acquire("b"))
		req.Equal(2, reg.Len())
	})

	t.Run("should close a dropped view", func(t *testing.T) {
		req := require.New(t)
		reg := NewRegistry(time.Minute, factory, zap.NewNop())
		defer reg.Close()

		view := reg.Acquire("a")
		changes := view.Watch(context.Background())
		drained := make(chan struct{})
		go func() {
			for range changes {
			}
			close(drained)
		}()
		reg.Drop("a")

		select {
		case <-drained:
		case <-time.After(eventually):
			t.Fatal("watch channel left open")
		}
		req.ErrorIs(view.SwitchTab(TabNotifications), ErrViewClosed)
		req.NotSame(view, reg.Acquire("a"))
	})

	t.Run("should close views left idle", func(t *testing.T) {
		req := require.New(t)
		reg := NewRegistry(40*time.Millisecond, factory, zap.NewNop())
		defer reg.Close()

		view := reg.Acquire("a")
		req.Eventually(func() bool { return view.isClosed() }, eventually, tick)
		req.Equal(0, reg.Len())
	})
	t.Run("should close an expired view before replacing it", func(t *testing.T) {
		req := require.New(t)
		reg := newRegistry(50*time.Millisecond, 0, factory, zap.NewNop())
		defer reg.Close()

		old := reg.Acquire("a")
		time.Sleep(80 * time.Millisecond)
		fresh := reg.Acquire("a")

		req.NotSame(old, fresh)
		req.True(old.isClosed())
		req.False(fresh.isClosed())
		req.Equal(1, reg.Len())
	})

	t.Run("should close expired views on shutdown", func(t *testing.T) {
		req := require.New(t)
		reg := newRegistry(20*time.Millisecond, 0, factory, zap.NewNop())

		view := reg.Acquire("a")
		time.Sleep(40 * time.Millisecond)
		reg.Close()
		req.True(view.isClosed())
	})
}
