package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

type record struct {
	level string
	msg   string
	args  []any
}

type recorder struct {
	records []record
}

func (r *recorder) Info(msg string, v ...any) { r.records = append(r.records, record{"info", msg, v}) }
func (r *recorder) Warn(msg string, v ...any) { r.records = append(r.records, record{"warn", msg, v}) }

func serve(t *testing.T, h http.Handler, path string) (*http.Response, string) {
	t.Helper()

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err, "should make request to test server")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")
	defer resp.Body.Close() // nolint:errcheck

	return resp, string(body)
}

func TestLoggerMiddleware(t *testing.T) {
	rec := &recorder{}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, err := w.Write([]byte("hi"))
		require.NoError(t, err, "should write response")
	})

	resp, body := serve(t, chimw.RequestID(LoggerMiddleware(rec)(h)), "/test")

	require.Equalf(t, http.StatusTeapot, resp.StatusCode, "should return status Teapot. Resp: %s", body)
	require.Equal(t, "hi", body, "should return 'hi' in response")

	require.Len(t, rec.records, 1, "logger should be called once")
	r := rec.records[0]
	require.Equal(t, "info", r.level)
	require.Equal(t, "HTTP request served", r.msg)
	require.Len(t, r.args, 12, "logger should log 12 fields")
	require.Equal(t, "request_id", r.args[0])
	require.NotEmpty(t, r.args[1], "request id should be set by chi middleware")
	require.Equal(t, "method", r.args[2])
	require.Equal(t, "GET", r.args[3])
	require.Equal(t, "uri", r.args[4])
	require.Equal(t, "/test", r.args[5])
	require.Equal(t, "duration", r.args[6])
	require.NotEmpty(t, r.args[7], "duration should not be empty")
	require.Equal(t, "status", r.args[8])
	require.Equal(t, http.StatusTeapot, r.args[9])
	require.Equal(t, "size", r.args[10])
	require.Equal(t, 2, r.args[11], "size should be 2 (length of 'hi')")
}

func TestLoggerMiddleware_ServerError(t *testing.T) {
	rec := &recorder{}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	resp, _ := serve(t, LoggerMiddleware(rec)(h), "/fail")

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Len(t, rec.records, 1)
	require.Equal(t, "warn", rec.records[0].level)
	require.Equal(t, "", rec.records[0].args[1], "no request id without chi middleware")
}

func TestCORSHandler(t *testing.T) {
	h := CORSHandler([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/reward/users", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/reward/users", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
