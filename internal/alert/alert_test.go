package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/crypto"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type barkServer struct {
	*httptest.Server
	mu     sync.Mutex
	paths  []string
	bodies []map[string]string
	tokens []string
}

func newBarkServer(t *testing.T) *barkServer {
	b := &barkServer{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.paths = append(b.paths, r.URL.Path)
		b.tokens = append(b.tokens, r.Header.Get("API-TOKEN"))
		if r.Method == http.MethodPost {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			b.bodies = append(b.bodies, body)
		}
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "success"})
	}))
	t.Cleanup(b.Close)
	return b
}

func alertConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Alert.Enabled = true
	cfg.Alert.BaseURL = url
	cfg.Alert.Token = "tok"
	cfg.Alert.DeviceKey = "device-1"
	cfg.Alert.RequestTimeout = time.Second
	return cfg
}

func TestNew(t *testing.T) {
	t.Run("should be a no-op when disabled", func(t *testing.T) {
		req := require.New(t)
		n, err := New(&config.Config{}, zap.NewNop())
		req.NoError(err)
		req.IsType(Nop{}, n)
	})

	t.Run("should refuse a bad encryption key", func(t *testing.T) {
		req := require.New(t)
		cfg := alertConfig("http://127.0.0.1:1")
		cfg.Alert.EncodeKey = "short"
		cfg.Alert.IV = "0123456789abcdef"
		_, err := New(cfg, zap.NewNop())
		req.ErrorIs(err, crypto.ErrKeySize)
	})
}

func TestBark_Send(t *testing.T) {
	draft := model.ContactDraft{Name: "Ada", Email: "ada@example.com", Message: "Hello there"}

	t.Run("should push a plain alert", func(t *testing.T) {
		req := require.New(t)
		srv := newBarkServer(t)
		n, err := New(alertConfig(srv.URL), zap.NewNop())
		req.NoError(err)

		req.NoError(n.(*Bark).Send(context.Background(), draft))
		req.Equal([]string{"/device-1"}, srv.paths)
		req.Equal("tok", srv.tokens[0])
		req.Equal("New message from Ada", srv.bodies[0]["title"])
		req.Equal("Hello there", srv.bodies[0]["body"])
	})

	t.Run("should push ciphertext when a key is configured", func(t *testing.T) {
		req := require.New(t)
		srv := newBarkServer(t)
		cfg := alertConfig(srv.URL)
		cfg.Alert.EncodeKey = "0123456789abcdef"
		cfg.Alert.IV = "fedcba9876543210"
		n, err := New(cfg, zap.NewNop())
		req.NoError(err)

		n.MessageReceived(draft)
		n.Close()

		req.Len(srv.bodies, 1)
		req.Equal(cfg.Alert.IV, srv.bodies[0]["iv"])
		plain, err := crypto.DecryptFromBase64(srv.bodies[0]["ciphertext"], []byte(cfg.Alert.EncodeKey), []byte(cfg.Alert.IV))
		req.NoError(err)
		var p Payload
		req.NoError(json.Unmarshal(plain, &p))
		req.Equal("New message from Ada", p.Title)
	})

	t.Run("should ping the server", func(t *testing.T) {
		req := require.New(t)
		srv := newBarkServer(t)
		n, err := New(alertConfig(srv.URL), zap.NewNop())
		req.NoError(err)
		req.NoError(n.Ping(context.Background()))
		req.Equal([]string{"/ping"}, srv.paths)
	})
}
