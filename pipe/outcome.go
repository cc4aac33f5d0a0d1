package pipe

// Outcome is the result of a handler or of a whole pipeline run. It either
// carries a terminal response or signals that no response was produced.
type Outcome[Resp any] struct {
	resp     Resp
	terminal bool
}

// Respond returns a terminal Outcome carrying r. Once a handler returns it,
// no further handler runs.
func Respond[Resp any](r Resp) Outcome[Resp] {
	return Outcome[Resp]{resp: r, terminal: true}
}

// Continue returns an Outcome without a response.
func Continue[Resp any]() Outcome[Resp] {
	return Outcome[Resp]{}
}

// Response returns the terminal response and true, or the zero value and
// false when there is none.
func (o Outcome[Resp]) Response() (Resp, bool) {
	return o.resp, o.terminal
}

// Terminal reports whether the outcome carries a response.
func (o Outcome[Resp]) Terminal() bool {
	return o.terminal
}

// String returns "response" or "passthrough".
func (o Outcome[Resp]) String() string {
	if o.terminal {
		return "response"
	}
	return "passthrough"
}
