package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/errors"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr bool
	}{
		{"valid", `{"name":"a"}`, MaxBodyBytes, false},
		{"empty", ``, MaxBodyBytes, true},
		{"malformed", `{"name":`, MaxBodyBytes, true},
		{"unknown field", `{"name":"a","extra":1}`, MaxBodyBytes, true},
		{"trailing value", `{"name":"a"} {"name":"b"}`, MaxBodyBytes, true},
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(r, &p, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %s, want INVALID_INPUT", errors.GetCode(err))
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   errors.Code
		wantMsg    string
	}{
		{"coded", errors.New(errors.ErrCodeInvalidBlock, "bad block"), 400, errors.ErrCodeInvalidBlock, "bad block"},
		{"plain error hides details", stderrors.New("dial tcp 10.0.0.1: refused"), 500, errors.ErrCodeInternal, "internal error"},
		{"store", errors.Wrap(errors.ErrCodeStore, stderrors.New("x"), "write failed"), 503, errors.ErrCodeStore, "write failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.wantCode || body.Message != tt.wantMsg {
				t.Errorf("body = %+v", body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestReadError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New(errors.ErrCodeBlockNotFound, "no such block"))
	err := ReadError(rec.Result())
	if !errors.Is(err, errors.ErrCodeBlockNotFound) || errors.UserMessage(err) != "no such block" {
		t.Errorf("ReadError() = %v", err)
	}

	rec = httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)
	rec.WriteString("<html>")
	if err := ReadError(rec.Result()); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("ReadError(non-JSON) = %v", err)
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	transient := &RetryableError{Err: stderrors.New("503")}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		calls := 0
		permanent := stderrors.New("400")
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			return permanent
		})
		if err != permanent || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("returns last error", func(t *testing.T) {
		err := Retry(ctx, 2, time.Millisecond, func() error { return transient })
		if err != transient {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := Retry(cctx, 3, time.Hour, func() error { return transient })
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/pages", nil))

	out := buf.String()
	for _, want := range []string{"path=/v1/pages", "status=418", "bytes=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
