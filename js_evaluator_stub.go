//go:build !js_eval

package reactive

// NewJSEvaluator returns nil unless the binary is built with the js_eval tag,
// which links the goja runtime.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
