package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/crypto"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"go.uber.org/zap"
)

const group = "contact-admin"

// Notifier announces new contact messages.
type Notifier interface {
	MessageReceived(msg model.ContactDraft)
	Ping(ctx context.Context) error
	Close()
}

// Nop drops every alert.
type Nop struct{}

func (Nop) MessageReceived(model.ContactDraft) {}
func (Nop) Ping(context.Context) error         { return nil }
func (Nop) Close()                             {}

// Bark pushes alerts to one device key, encrypting them when a key and iv
// are configured.
type Bark struct {
	client    *Client
	deviceKey string
	key, iv   []byte
	timeout   time.Duration
	log       *zap.Logger
	wg        sync.WaitGroup
}

// New returns a Bark notifier, or Nop when alerts are disabled.
func New(cfg *config.Config, log *zap.Logger) (Notifier, error) {
	ac := cfg.Alert
	if !ac.Enabled {
		return Nop{}, nil
	}
	if ac.DeviceKey == "" {
		return nil, fmt.Errorf("alert.device_key is required when alerts are enabled")
	}
	client, err := NewClient(ac.BaseURL, ac.Token, ac.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("init bark client: %w", err)
	}
	timeout := ac.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b := &Bark{
		client:    client,
		deviceKey: ac.DeviceKey,
		timeout:   timeout,
		log:       log.Named("alert"),
	}
	if ac.EncodeKey != "" || ac.IV != "" {
		if err := crypto.CheckKey([]byte(ac.EncodeKey), []byte(ac.IV)); err != nil {
			return nil, fmt.Errorf("alert encryption: %w", err)
		}
		b.key, b.iv = []byte(ac.EncodeKey), []byte(ac.IV)
	}
	return b, nil
}

// MessageReceived sends the alert in the background. Failures are logged.
func (b *Bark) MessageReceived(msg model.ContactDraft) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.Send(ctx, msg); err != nil {
			b.log.Warn("new message alert failed", zap.Error(err))
		}
	}()
}

// Send pushes one alert and waits for the answer.
func (b *Bark) Send(ctx context.Context, msg model.ContactDraft) error {
	p := Payload{
		Title: "New message from " + msg.Name,
		Body:  msg.Message,
		Group: group,
	}
	if b.key == nil {
		_, err := b.client.Push(ctx, b.deviceKey, p)
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ciphertext, err := crypto.EncryptToBase64(raw, b.key, b.iv)
	if err != nil {
		return err
	}
	_, err = b.client.PushEncrypted(ctx, b.deviceKey, ciphertext, string(b.iv))
	return err
}

// Ping checks the Bark server.
func (b *Bark) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

// Close waits for in-flight alerts.
func (b *Bark) Close() {
	b.wg.Wait()
}
