package theme

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage/bolt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPreference(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := bolt.New(filepath.Join(t.TempDir(), "theme.db"))
	req.NoError(err)
	t.Cleanup(func() { _ = store.Close() })

	pref := New(store, zap.NewNop())
	req.NoError(pref.Init(ctx))
	req.Equal(Light, pref.Current())

	next, err := pref.Toggle(ctx)
	req.NoError(err)
	req.Equal(Dark, next)

	reloaded := New(store, zap.NewNop())
	req.NoError(reloaded.Init(ctx))
	req.Equal(Dark, reloaded.Current())

	next, err = reloaded.Toggle(ctx)
	req.NoError(err)
	req.Equal(Light, next)
}

func TestPreference_IgnoresUnknownValue(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := bolt.New(filepath.Join(t.TempDir(), "theme.db"))
	req.NoError(err)
	t.Cleanup(func() { _ = store.Close() })

	req.NoError(store.PutSetting(ctx, settingKey, "sepia"))
	pref := New(store, zap.NewNop())
	req.NoError(pref.Init(ctx))
	req.Equal(Light, pref.Current())
}
