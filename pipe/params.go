package pipe

import "fmt"

// PayloadKey is the reserved Params key holding the pipe payload.
const PayloadKey = "pipe.payload"

// Params carries route parameters, values set by handlers and the pipe
// payload through one pipeline run. A run owns its Params exclusively, so
// handlers may mutate it in place.
type Params map[string]any

// NewParams returns Params seeded with route parameters.
func NewParams(route map[string]string) Params {
	p := make(Params, len(route)+1)
	for k, v := range route {
		p[k] = v
	}
	return p
}

// Get returns the value stored under key, or nil.
func (p Params) Get(key string) any {
	if p == nil {
		return nil
	}
	return p[key]
}

// String returns the value under key formatted as a string, or "" when the
// key is absent.
func (p Params) String(key string) string {
	switch v := p.Get(key).(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Set stores v under key.
func (p Params) Set(key string, v any) {
	p[key] = v
}

// Payload returns the payload forwarded by the previous handler.
func (p Params) Payload() (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[PayloadKey]
	return v, ok
}

// PayloadAs returns the payload asserted to T.
func PayloadAs[T any](p Params) (T, bool) {
	v, ok := p.Payload()
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (p Params) setPayload(payload []any) {
	if len(payload) == 0 {
		delete(p, PayloadKey)
		return
	}
	p[PayloadKey] = payload[0]
}
