// Package theme keeps the process-wide light/dark preference.
package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"go.uber.org/zap"
)

// Theme is a colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const settingKey = "theme"

// Preference reads and toggles the stored theme.
type Preference struct {
	store storage.SettingsStore
	log   *zap.Logger

	mu      sync.RWMutex
	current Theme
}

// New returns a preference starting at Light until Init loads the stored value.
func New(store storage.SettingsStore, log *zap.Logger) *Preference {
	return &Preference{store: store, log: log.Named("theme"), current: Light}
}

// Init loads the stored theme. A missing or unknown value keeps Light.
func (p *Preference) Init(ctx context.Context) error {
	raw, err := p.store.GetSetting(ctx, settingKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch Theme(raw) {
	case Light, Dark:
		p.current = Theme(raw)
	default:
		p.log.Warn("ignoring unknown stored theme", zap.String("theme", raw))
	}
	return nil
}

// Current returns the active theme.
func (p *Preference) Current() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Toggle flips the theme and persists it. The in-memory value flips even
// when persisting fails.
func (p *Preference) Toggle(ctx context.Context) (Theme, error) {
	p.mu.Lock()
	if p.current == Dark {
		p.current = Light
	} else {
		p.current = Dark
	}
	next := p.current
	p.mu.Unlock()

	if err := p.store.PutSetting(ctx, settingKey, string(next)); err != nil {
		return next, fmt.Errorf("save theme: %w", err)
	}
	return next, nil
}
