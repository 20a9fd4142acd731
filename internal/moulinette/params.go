package moulinette

// Params is the raw request parameter map. Field presence depends on the
// active configuration's form schemas, so values stay loosely typed and
// evaluators read them through the accessors.
type Params map[string]any

// Has reports whether the parameter is present with a usable value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

// Float reads a numeric parameter. JSON decoding produces float64; int
// values are accepted for convenience in tests and fixtures.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

func (p Params) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}
