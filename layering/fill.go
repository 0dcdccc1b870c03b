package layering

import "reflect"

// FillOption configures Fill.
type FillOption func(*fillConfig)

type fillConfig struct {
	unwrap func(any) (map[string]any, bool)
}

// WithUnwrap teaches Fill to see through wrapper values (for example
// observable containers) that hold a map[string]any.
func WithUnwrap(fn func(any) (map[string]any, bool)) FillOption {
	return func(cfg *fillConfig) {
		cfg.unwrap = fn
	}
}

// Fill layers defaults under dst in place: keys missing from dst are copied
// over by reference, and maps present on both sides are filled recursively.
// Values already in dst always win, including nil. Lists are leaves. Shared
// and cyclic maps in dst are visited once.
func Fill(dst, defaults map[string]any, opts ...FillOption) {
	cfg := fillConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	fill(dst, defaults, &cfg, map[uintptr]bool{})
}

func fill(dst, defaults map[string]any, cfg *fillConfig, seen map[uintptr]bool) {
	if dst == nil || defaults == nil {
		return
	}
	id := reflect.ValueOf(dst).Pointer()
	if seen[id] {
		return
	}
	seen[id] = true

	for key, weak := range defaults {
		strong, ok := dst[key]
		if !ok {
			dst[key] = weak
			continue
		}
		strongMap, ok := cfg.asMap(strong)
		if !ok {
			continue
		}
		if weakMap, ok := cfg.asMap(weak); ok {
			fill(strongMap, weakMap, cfg, seen)
		}
	}
}

func (cfg *fillConfig) asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, m != nil
	}
	if cfg.unwrap != nil {
		return cfg.unwrap(v)
	}
	return nil, false
}
