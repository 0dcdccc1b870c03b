package hydrate

import (
	"bytes"
	"fmt"

	reactive "github.com/goliatone/go-reactive"
)

// Context carries identifiers tied to a payload.
type Context struct {
	Ident string
}

// PreHook lets callers mutate or normalise the payload before it is applied.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers inspect or validate the target after hydration.
type PostHook func(Context, reactive.Reader, Exported) error

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder applies payloads produced by Marshal onto live targets.
type Decoder struct {
	preHooks  []PreHook
	postHooks []PostHook
	useNumber bool
	strict    bool
}

// WithPreHook applies hook prior to hydration.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook runs hook after each pointer is hydrated.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber keeps numbers as json.Number instead of float64.
func WithUseNumber() DecoderOption {
	return func(d *Decoder) {
		d.useNumber = true
	}
}

// WithStrictPointers fails when a tagged payload targets a key that holds no
// pointer, instead of skipping it.
func WithStrictPointers() DecoderOption {
	return func(d *Decoder) {
		d.strict = true
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode applies data onto target, a map[string]any or a container wrapping
// one. Tagged pointer payloads are written through the pointer target holds
// under the same key; every other key is assigned, through Set when target
// is a container.
func (d *Decoder) Decode(ctx Context, data []byte, target any) error {
	payload, err := d.parse(data)
	if err != nil {
		return fmt.Errorf("hydrate: decode %q: %w", ctx.Ident, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, payload)
		if err != nil {
			return fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx.Ident, err)
		}
		if next != nil {
			payload = next
		}
	}

	get, set, err := accessors(target)
	if err != nil {
		return fmt.Errorf("hydrate: %q: %w", ctx.Ident, err)
	}
	for key, value := range payload {
		raw, tagged := isTaggedPointer(value)
		if !tagged {
			if err := set(key, value); err != nil {
				return fmt.Errorf("hydrate: assign %q in %q: %w", key, ctx.Ident, err)
			}
			continue
		}
		ptr, ok := get(key).(reactive.Reader)
		if !ok {
			if d.strict {
				return fmt.Errorf("%w: key %q in %q", ErrNotPointer, key, ctx.Ident)
			}
			continue
		}
		exported, err := exportedFrom(raw)
		if err != nil {
			return fmt.Errorf("hydrate: key %q in %q: %w", key, ctx.Ident, err)
		}
		if err := Apply(ptr, exported); err != nil {
			return fmt.Errorf("hydrate: key %q in %q: %w", key, ctx.Ident, err)
		}
		for _, hook := range d.postHooks {
			if hook == nil {
				continue
			}
			if err := hook(ctx, ptr, exported); err != nil {
				return fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx.Ident, err)
			}
		}
	}
	return nil
}

func (d *Decoder) parse(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}
	decoder := jsonAPI.NewDecoder(bytes.NewReader(data))
	if d.useNumber {
		decoder.UseNumber()
	}
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("payload is null")
	}
	return payload, nil
}

func accessors(target any) (func(string) any, func(string, any) error, error) {
	switch t := target.(type) {
	case *reactive.State:
		if t == nil {
			break
		}
		return func(key string) any {
				return t.Get(key)
			}, func(key string, value any) error {
				return t.Set(key, value)
			}, nil
	case map[string]any:
		if t == nil {
			break
		}
		return func(key string) any {
				return t[key]
			}, func(key string, value any) error {
				t[key] = value
				return nil
			}, nil
	}
	return nil, nil, fmt.Errorf("unsupported target %T", target)
}
