package reactive

// engineConfig is shared by the evaluator constructors.
type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// ExprEvaluatorOption configures NewExprEvaluator.
type ExprEvaluatorOption func(*engineConfig)

// CELEvaluatorOption configures NewCELEvaluator.
type CELEvaluatorOption func(*engineConfig)

// JSEvaluatorOption configures NewJSEvaluator.
type JSEvaluatorOption func(*engineConfig)

// ExprWithProgramCache stores compiled expr programs in cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(cfg *engineConfig) { cfg.cache = cache }
}

// ExprWithFunctionRegistry exposes a snapshot of registry to expr programs.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(cfg *engineConfig) { cfg.useRegistry(registry) }
}

// CELWithProgramCache stores compiled CEL programs in cache.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(cfg *engineConfig) { cfg.cache = cache }
}

// CELWithFunctionRegistry exposes a snapshot of registry through call().
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(cfg *engineConfig) { cfg.useRegistry(registry) }
}

// JSWithProgramCache stores compiled goja programs in cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(cfg *engineConfig) { cfg.cache = cache }
}

// JSWithFunctionRegistry exposes a snapshot of registry through call().
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(cfg *engineConfig) { cfg.useRegistry(registry) }
}

func (cfg *engineConfig) useRegistry(registry *FunctionRegistry) {
	if registry != nil {
		cfg.registry = registry.Clone()
	}
}

func newEngineConfig[O ~func(*engineConfig)](opts []O) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// load returns the cached program of engine for key, if any.
func (cfg engineConfig) load(engine, key string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(engine + ":" + key)
}

func (cfg engineConfig) store(engine, key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(engine+":"+key, program)
	}
}
