package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter_WriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)

	if rw.Status() != http.StatusNotFound {
		t.Errorf("Status() = %d, want %d", rw.Status(), http.StatusNotFound)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("underlying status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if !rw.Written() {
		t.Error("Written() = false, want true")
	}
}

func TestResponseWriter_WriteHeader_OnlyOnce(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusGatewayTimeout)
	rw.WriteHeader(http.StatusOK) // late handler, ignored

	if rw.Status() != http.StatusGatewayTimeout {
		t.Errorf("Status() = %d, want %d", rw.Status(), http.StatusGatewayTimeout)
	}
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("underlying status = %d, want %d", w.Code, http.StatusGatewayTimeout)
	}
}

func TestResponseWriter_Write(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	data := []byte("hello world")
	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(data) {
		t.Errorf("Write() = %d, want %d", n, len(data))
	}
	if rw.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", rw.Size(), len(data))
	}
	if rw.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want %d", rw.Status(), http.StatusOK)
	}
	if !rw.Written() {
		t.Error("Written() = false, want true")
	}
	if w.Body.String() != "hello world" {
		t.Errorf("body = %q, want %q", w.Body.String(), "hello world")
	}
}

func TestNewResponseWriter_ReusesWrapper(t *testing.T) {
	w := httptest.NewRecorder()
	outer := NewResponseWriter(w)
	inner := NewResponseWriter(outer)

	if inner != outer {
		t.Fatal("NewResponseWriter wrapped an existing ResponseWriter twice")
	}

	inner.WriteHeader(http.StatusAccepted)
	if !outer.Written() {
		t.Error("outer.Written() = false after inner write")
	}
}

func TestResponseWriter_Unwrap(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	if rw.Unwrap() != w {
		t.Error("Unwrap() did not return the underlying writer")
	}
}
