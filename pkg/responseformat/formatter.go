// Package responseformat writes HTTP responses as JSON or MessagePack.
package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WantsMsgPack reports whether the client asked for MessagePack, either with
// format=msgpack or an Accept header naming it
func WantsMsgPack(req *http.Request) bool {
	if req.URL.Query().Get("format") == "msgpack" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), ContentTypeMsgPack)
}

// WriteResponse encodes data with the requested format and status.
// MessagePack output is derived from the JSON encoding so custom
// MarshalJSON and MarshalText methods shape both formats the same way.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return f.WriteRawJSON(w, req, status, jsonBytes, nil)
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError writes an ErrorBody with the given status
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, code, msg string) error {
	return f.WriteResponse(w, req, status, ErrorBody{Error: msg, Code: code})
}

// WriteRawJSON writes pre-encoded JSON data with optional wrapper
func (f *Formatter) WriteRawJSON(w http.ResponseWriter, req *http.Request, status int, jsonBytes []byte, wrapper *JSONWrapper) error {
	if wrapper != nil {
		wrapped, err := wrapper.wrap(jsonBytes)
		if err != nil {
			return err
		}
		jsonBytes = wrapped
	}

	if WantsMsgPack(req) {
		data, err := decodeJSON(jsonBytes)
		if err != nil {
			return err
		}
		return f.writeMsgPack(w, status, data)
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, err := w.Write(jsonBytes)
	return err
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	encoder.SetCustomStructTag("json")
	if err := encoder.Encode(data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", ContentTypeMsgPack)
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// decodeJSON turns a JSON document into generic values, keeping integers as
// int64 so MessagePack does not widen them to floats
func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	return normalizeNumbers(data), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}

// JSONWrapper wraps raw JSON data with the metadata of a stored record
type JSONWrapper struct {
	ID        string
	CreatedAt time.Time
}

func (j *JSONWrapper) wrap(jsonBytes []byte) ([]byte, error) {
	return json.Marshal(struct {
		ID        string          `json:"id"`
		CreatedAt time.Time       `json:"createdAt"`
		Data      json.RawMessage `json:"data"`
	}{j.ID, j.CreatedAt.UTC(), jsonBytes})
}
