package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should fall back to defaults when the file is missing", func(t *testing.T) {
		req := require.New(t)
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		req.NoError(err)
		req.Equal(":8090", cfg.HTTP.Addr)
		req.Equal(12*time.Hour, cfg.Auth.SessionTTL)
		req.Equal(30*time.Minute, cfg.Views.IdleTTL)
		req.Equal("contact_admin_session", cfg.Auth.CookieName)
		req.Equal(time.UTC, cfg.Location())
	})

	t.Run("should read the yaml file and let env override it", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		req.NoError(os.WriteFile(path, []byte(`
http:
  addr: ":9000"
storage:
  path: /tmp/x.db
views:
  display_timezone: Europe/Paris
alert:
  enabled: true
`), 0o600))
		t.Setenv("CONTACT_ADMIN_HTTP_ADDR", ":9100")

		cfg, err := Load(path)
		req.NoError(err)
		req.Equal(":9100", cfg.HTTP.Addr)
		req.Equal("/tmp/x.db", cfg.Storage.Path)
		req.True(cfg.Alert.Enabled)
		req.Equal("Europe/Paris", cfg.Location().String())
	})

	t.Run("should reject an unknown timezone", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		req.NoError(os.WriteFile(path, []byte("views:\n  display_timezone: Mars/Olympus\n"), 0o600))
		_, err := Load(path)
		req.Error(err)
	})
}
