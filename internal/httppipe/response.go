package httppipe

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/menezmethod/mwpipe/internal/apierror"
)

// Response is a terminal HTTP response produced by a pipeline handler.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON returns a response with v encoded as the JSON body.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	resp := &Response{Status: status, Header: http.Header{}, Body: append(body, '\n')}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

// Text returns a plain text response.
func Text(status int, s string) *Response {
	resp := &Response{Status: status, Header: http.Header{}, Body: []byte(s)}
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return &Response{Status: http.StatusNoContent, Header: http.Header{}}
}

// Error returns the JSON envelope for err.
func Error(err *apierror.Error) *Response {
	resp, encErr := JSON(err.Status, apierror.Envelope{Error: err})
	if encErr != nil {
		return Text(err.Status, err.Message)
	}
	return resp
}

// Write copies the response onto w. A zero status writes 200.
func (r *Response) Write(w http.ResponseWriter) error {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
