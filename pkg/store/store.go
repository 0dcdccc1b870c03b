package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	reactive "github.com/goliatone/go-reactive"
	"github.com/goliatone/go-reactive/layering"
	"github.com/goliatone/go-reactive/pkg/activity"
	"github.com/google/uuid"
)

var (
	ErrMissingIdent     = errors.New("store: ident is required")
	ErrUnknownAutosave  = errors.New("store: unknown autosave mode")
	ErrUnknownCodec     = errors.New("store: unknown codec")
	ErrUnsupportedValue = errors.New("store: unsupported value")
	ErrCorruptPayload   = errors.New("store: corrupt payload")
)

// Store is a container graph persisted under one ident.
type Store struct {
	cfg        Config
	backing    Backing
	codec      Codec
	logger     *slog.Logger
	activities *activity.Emitter

	mu      sync.Mutex
	state   *reactive.State
	hooked  map[reactive.StateID]bool
	meta    Meta
	lastErr error
}

// Option configures Open.
type Option func(*options)

type options struct {
	backing       Backing
	codec         Codec
	logger        *slog.Logger
	activityHooks activity.Hooks
}

// WithBacking sets where the graph is persisted. Stores default to a fresh
// MemoryBacking.
func WithBacking(backing Backing) Option {
	return func(o *options) {
		o.backing = backing
	}
}

// WithCodec overrides the codec named by Config.Codec.
func WithCodec(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithActivityHooks reports loads and saves to hooks.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(o *options) {
		o.activityHooks = hooks
	}
}

// Open restores the graph stored under cfg.Ident onto rt, or wraps target
// when nothing is stored yet. target is a map[string]any or a container
// wrapping one; its keys act as defaults for keys missing from the stored
// graph.
func Open(ctx context.Context, rt *reactive.Runtime, target any, cfg Config, opts ...Option) (*Store, error) {
	if rt == nil {
		rt = reactive.Default()
	}
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.backing == nil {
		o.backing = NewMemoryBacking()
	}
	if o.codec == nil {
		if o.codec, err = CodecByName(cfg.Codec); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	defaults, err := defaultsOf(target)
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:        cfg,
		backing:    o.backing,
		codec:      o.codec,
		logger:     o.logger,
		activities: activity.NewEmitter(o.activityHooks, activity.Config{Enabled: len(o.activityHooks) > 0, Channel: "store"}),
		hooked:     map[reactive.StateID]bool{},
	}

	data, meta, ok, err := s.backing.Read(ctx, cfg.Ident)
	if err != nil {
		return nil, fmt.Errorf("store: read %q: %w", cfg.Ident, err)
	}
	if ok {
		root, err := s.restore(rt, data, defaults)
		if err != nil {
			return nil, fmt.Errorf("store: restore %q: %w", cfg.Ident, err)
		}
		s.state = root
		s.meta = meta
		s.logger.Debug("store restored", "ident", cfg.Ident, "snapshot", meta.SnapshotID, "bytes", len(data))
		s.emit(ctx, activity.BuildStoreLoadedEvent(activity.StoreEventInput{
			Ident:      cfg.Ident,
			SnapshotID: meta.SnapshotID,
			Bytes:      len(data),
		}))
	} else if st, isState := target.(*reactive.State); isState {
		s.state = st
	} else if s.state, err = rt.NewState(target); err != nil {
		return nil, err
	}

	if cfg.Autosave == AutosaveAuto {
		s.hook(s.state, map[any]bool{})
	}
	register(s)
	return s, nil
}

func defaultsOf(target any) (map[string]any, error) {
	switch t := target.(type) {
	case map[string]any:
		if t == nil {
			return nil, fmt.Errorf("%w: nil target", ErrUnsupportedValue)
		}
		return t, nil
	case *reactive.State:
		if m, ok := t.Target().(map[string]any); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: store target %T", ErrUnsupportedValue, target)
}

func (s *Store) restore(rt *reactive.Runtime, data []byte, defaults map[string]any) (*reactive.State, error) {
	var doc Document
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root, err := Decode(rt, &doc)
	if err != nil {
		return nil, err
	}
	rootMap, ok := stateMap(root)
	if !ok {
		return nil, fmt.Errorf("%w: root is not an object", ErrCorruptPayload)
	}
	layering.Fill(rootMap, defaults, layering.WithUnwrap(stateMap))
	if st, ok := root.(*reactive.State); ok {
		return st, nil
	}
	return rt.NewState(rootMap)
}

func stateMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, t != nil
	case *reactive.State:
		m, ok := t.Target().(map[string]any)
		return m, ok
	}
	return nil, false
}

// hook attaches the autosave listener to every container reachable from v
// that is not hooked yet.
func (s *Store) hook(v any, seen map[any]bool) {
	switch t := v.(type) {
	case *reactive.State:
		if seen[t] {
			return
		}
		seen[t] = true
		if !s.hooked[t.ID()] {
			s.hooked[t.ID()] = true
			t.Listen(func(_, value any) {
				s.hook(value, map[any]bool{})
				s.autosave()
			})
		}
		s.hook(t.Target(), seen)
	case map[string]any:
		id := reflect.ValueOf(t).Pointer()
		if seen[id] {
			return
		}
		seen[id] = true
		for _, item := range t {
			s.hook(item, seen)
		}
	case []any:
		for _, item := range t {
			s.hook(item, seen)
		}
	}
}

func (s *Store) autosave() {
	if err := s.Save(context.Background()); err != nil {
		s.logger.Warn("store autosave failed", "ident", s.cfg.Ident, "error", err)
	}
}

// Save writes the current graph to the backing.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.save(ctx)
	s.lastErr = err
	return err
}

func (s *Store) save(ctx context.Context) error {
	doc, err := Encode(s.state)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", s.cfg.Ident, err)
	}
	doc.Snapshot = uuid.NewString()
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", s.cfg.Ident, err)
	}
	meta, err := s.backing.Write(ctx, s.cfg.Ident, data, Meta{
		SnapshotID: doc.Snapshot,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("store: write %q: %w", s.cfg.Ident, err)
	}
	s.meta = meta
	s.logger.Debug("store saved", "ident", s.cfg.Ident, "snapshot", meta.SnapshotID, "objects", len(doc.Objects))
	s.emit(ctx, activity.BuildStoreSavedEvent(activity.StoreEventInput{
		Ident:      s.cfg.Ident,
		SnapshotID: meta.SnapshotID,
		Bytes:      len(data),
	}))
	return nil
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.activities.Enabled() {
		return
	}
	if err := s.activities.Emit(ctx, event); err != nil {
		s.logger.Warn("store activity hook failed", "ident", s.cfg.Ident, "verb", event.Verb, "error", err)
	}
}

// State returns the root container.
func (s *Store) State() *reactive.State {
	return s.state
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Meta returns the metadata of the last snapshot read or written.
func (s *Store) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// LastError reports the outcome of the most recent save, including autosaves.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close removes the store from SaveAll. Autosave listeners stay attached.
func (s *Store) Close() {
	unregister(s)
}

var registry struct {
	mu     sync.Mutex
	stores []*Store
}

func register(s *Store) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.stores = append(registry.stores, s)
}

func unregister(s *Store) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for i, existing := range registry.stores {
		if existing == s {
			registry.stores = append(registry.stores[:i:i], registry.stores[i+1:]...)
			return
		}
	}
}

// SaveAll saves every open store and joins their errors.
func SaveAll(ctx context.Context) error {
	registry.mu.Lock()
	stores := append([]*Store(nil), registry.stores...)
	registry.mu.Unlock()

	var errs []error
	for _, s := range stores {
		if err := s.Save(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
