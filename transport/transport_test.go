package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return NewClientWithBackoff(time.Millisecond)
}

// recorder captures every request the sink saw.
type recorder struct {
	mu    sync.Mutex
	calls int
	keys  []string
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.keys = append(r.keys, req.Header.Get("X-Idempotency-Key"))
}

func TestPostJSON_Success(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, map[string]any{"a": 1}, Options{Retries: 2})
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "success", res.Body["status"])
	assert.Equal(t, 1, rec.calls, "no retries on success")
}

func TestPostJSON_NonJSONBodyWrapped(t *testing.T) {
	long := strings.Repeat("x", 800)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(long))
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{})
	require.True(t, res.OK)
	text, _ := res.Body["text"].(string)
	assert.Len(t, text, 500, "non-JSON body is kept as a 500-char preview")
}

func TestPostJSON_PreviewTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("가", 600)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(long))
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{})
	require.True(t, res.OK)
	text, _ := res.Body["text"].(string)
	assert.True(t, utf8.ValidString(text), "preview must never split a multibyte rune")
	assert.Equal(t, 500, utf8.RuneCountInString(text))
	assert.Equal(t, strings.Repeat("가", 500), text)
}

func TestPostJSON_RetriesTransientThenSucceeds(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		if rec.calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{Retries: 2, IdempotencyKey: "key-1"})
	assert.True(t, res.OK)
	assert.Equal(t, 3, rec.calls)
	for _, k := range rec.keys {
		assert.Equal(t, "key-1", k, "idempotency key stable across retries")
	}
}

func TestPostJSON_RetryBudget(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{Retries: 2})
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, 3, rec.calls, "at most retries+1 calls")
}

func TestPostJSON_TerminalClientError(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api token"}`))
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{Retries: 3})
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, 1, rec.calls, "4xx other than 408/429 is terminal")
	assert.Equal(t, "invalid api token", res.Body["message"])
}

func TestPostJSON_408And429AreRetryable(t *testing.T) {
	for _, code := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests} {
		rec := &recorder{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rec.record(req)
			w.WriteHeader(code)
		}))

		res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{Retries: 1})
		assert.False(t, res.OK)
		assert.Equal(t, 2, rec.calls, "status %d should be retried", code)
		srv.Close()
	}
}

func TestPostJSON_GeneratesIdempotencyKeyWhenOmitted(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	testClient().PostJSON(context.Background(), srv.URL, nil, Options{Retries: 2})
	require.Equal(t, 3, rec.calls)
	assert.NotEmpty(t, rec.keys[0])
	assert.Equal(t, rec.keys[0], rec.keys[1])
	assert.Equal(t, rec.keys[0], rec.keys[2], "generated key stable across the whole call")
}

func TestPostJSON_TimeoutMarked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	res := testClient().PostJSON(context.Background(), srv.URL, nil, Options{
		Timeout: 20 * time.Millisecond,
		Retries: 1,
	})
	assert.False(t, res.OK)
	assert.True(t, res.TimedOut)
	assert.Zero(t, res.StatusCode)
}

func TestPostJSON_RequestIDHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	testClient().PostJSON(context.Background(), srv.URL, nil, Options{RequestID: "req-42"})
	assert.Equal(t, "req-42", got)
}
