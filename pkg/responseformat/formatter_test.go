package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
)

type label int

func (l label) MarshalText() ([]byte, error) {
	return []byte([]string{"yin", "yang"}[l]), nil
}

type payload struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
	Label  label   `json:"label"`
}

func TestWriteResponseJSON(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteResponse(rec, req, http.StatusCreated, payload{"a", 3, 0.7, 1}); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `{"name":"a","count":3,"weight":0.7,"label":"yang"}`
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

type decoded struct {
	Name   string  `msgpack:"name"`
	Count  int64   `msgpack:"count"`
	Weight float64 `msgpack:"weight"`
	Label  string  `msgpack:"label"`
}

func TestWriteResponseMsgPack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		url   string
	}{
		{"query", func(*http.Request) {}, "/x?format=msgpack"},
		{"accept", func(r *http.Request) { r.Header.Set("Accept", ContentTypeMsgPack) }, "/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			if err := f.WriteResponse(rec, req, http.StatusOK, payload{"a", 3, 0.7, 0}); err != nil {
				t.Fatal(err)
			}
			if ct := rec.Header().Get("Content-Type"); ct != ContentTypeMsgPack {
				t.Errorf("Content-Type = %q", ct)
			}

			var got decoded
			if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			want := decoded{Name: "a", Count: 3, Weight: 0.7, Label: "yin"}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("decoded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteRawJSONWrapper(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/charts/1", nil)
	rec := httptest.NewRecorder()

	created := time.Date(2024, 2, 4, 8, 0, 0, 0, time.UTC)
	err := f.WriteRawJSON(rec, req, http.StatusOK, []byte(`{"day":"戊午"}`), &JSONWrapper{ID: "abc", CreatedAt: created})
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		ID        string            `json:"id"`
		CreatedAt time.Time         `json:"createdAt"`
		Data      map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("%v: %s", err, rec.Body.String())
	}
	if got.ID != "abc" || !got.CreatedAt.Equal(created) || got.Data["day"] != "戊午" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteError(rec, req, http.StatusBadRequest, "invalid_input", "bad date"); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if want := `{"error":"bad date","code":"invalid_input"}`; rec.Body.String() != want {
		t.Errorf("body = %s, want %s", rec.Body.String(), want)
	}
}
