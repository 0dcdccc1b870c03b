package activity

import (
	"context"
	"strings"
)

// Config controls an Emitter. Channel defaults to "state". ActorID and
// TenantID stamp events that carry none, since engine writes have no caller
// identity of their own.
type Config struct {
	Enabled  bool
	Channel  string
	ActorID  string
	TenantID string
}

// Emitter applies Config defaults and forwards events to hooks.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter drops nil hooks and normalizes cfg. An emitter without hooks is
// disabled whatever cfg says.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	cfg.Channel = strings.TrimSpace(cfg.Channel)
	if cfg.Channel == "" {
		cfg.Channel = "state"
	}
	cfg.ActorID = strings.TrimSpace(cfg.ActorID)
	cfg.TenantID = strings.TrimSpace(cfg.TenantID)

	var kept Hooks
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	cfg.Enabled = cfg.Enabled && len(kept) > 0
	return &Emitter{hooks: kept, cfg: cfg}
}

// Enabled reports whether Emit reaches any hook. Callers use it to skip
// building events nobody receives.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled
}

// Emit fills missing channel, actor and tenant from the config and notifies
// the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.cfg.Channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.cfg.ActorID
	}
	if strings.TrimSpace(event.TenantID) == "" {
		event.TenantID = e.cfg.TenantID
	}
	return e.hooks.Notify(ctx, event)
}
