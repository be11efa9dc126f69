package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestServer_MiddlewareStack(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	srv := New(Options{Logger: zap.New(core)})
	srv.App().Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	srv.App().Get("/teapot", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))
	assert.NotZero(t, logs.FilterMessage("panic recovered").Len())

	resp, err = srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"short and stout"}`, string(body))

	req := httptest.NewRequest(fiber.MethodOptions, "/teapot", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodGet)
	resp, err = srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	assert.NotZero(t, logs.FilterMessage("http request").Len())
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(Options{ShutdownTimeout: time.Second})
	srv.App().Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/ping"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestCertificatesPresent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok, err := certificatesPresent(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = certificatesPresent("", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServer_RunFallsBackWithoutCertificates(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	dir := t.TempDir()
	srv := New(Options{
		Addr:            "127.0.0.1:0",
		TLS:             true,
		CertFile:        filepath.Join(dir, "cert.pem"),
		KeyFile:         filepath.Join(dir, "key.pem"),
		ShutdownTimeout: time.Second,
		Logger:          zap.New(core),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("http server listening").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("TLS certificate files not found; falling back to plain HTTP").Len())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
