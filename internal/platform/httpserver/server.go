// Package httpserver は fiber アプリケーションの構築と起動停止を担います。
package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Options は HTTP サーバーの設定です。
type Options struct {
	Addr            string
	CertFile        string
	KeyFile         string
	ShutdownTimeout time.Duration
	// TLS が真の場合、証明書が揃っていれば HTTPS で待ち受けます。
	TLS    bool
	Logger *zap.Logger
}

// Server は fiber.App のライフサイクルを管理します。
type Server struct {
	app  *fiber.App
	opts Options
}

// New はミドルウェア登録済みの Server を生成します。ルートは App() に登録します。
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               "hr-datahub",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(opts.Logger),
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			opts.Logger.Error("panic recovered",
				zap.Any("panic", e),
				zap.String("path", c.Path()),
				zap.ByteString("stack", debug.Stack()),
			)
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Mcp-Session-Id",
	}))
	app.Use(requestLogger(opts.Logger))

	return &Server{app: app, opts: opts}
}

// App はルート登録用の fiber.App を返します。
func (s *Server) App() *fiber.App {
	return s.app
}

// Run は設定されたアドレスで待ち受け、ctx の終了で停止します。
// TLS 指定時に証明書ファイルが見つからない場合は警告を出して HTTP で起動します。
func (s *Server) Run(ctx context.Context) error {
	useTLS := false
	if s.opts.TLS {
		ok, err := certificatesPresent(s.opts.CertFile, s.opts.KeyFile)
		if err != nil {
			return err
		}
		if ok {
			useTLS = true
		} else {
			s.opts.Logger.Warn("TLS certificate files not found; falling back to plain HTTP",
				zap.String("cert_file", s.opts.CertFile),
				zap.String("key_file", s.opts.KeyFile),
			)
		}
	}

	ln, err := s.listen(useTLS)
	if err != nil {
		return err
	}
	if useTLS {
		s.opts.Logger.Info("https server listening", zap.String("addr", ln.Addr().String()))
	} else {
		s.opts.Logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	}
	return s.Serve(ctx, ln)
}

func (s *Server) listen(useTLS bool) (net.Listener, error) {
	if !useTLS {
		ln, err := net.Listen("tcp", s.opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("httpserver: listen on %s: %w", s.opts.Addr, err)
		}
		return ln, nil
	}

	cert, err := tls.LoadX509KeyPair(s.opts.CertFile, s.opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("httpserver: load key pair: %w", err)
	}
	ln, err := tls.Listen("tcp", s.opts.Addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return nil, fmt.Errorf("httpserver: listen on %s: %w", s.opts.Addr, err)
	}
	return ln, nil
}

// Serve は与えられた listener で待ち受け、ctx の終了で停止します。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("httpserver: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.opts.Logger.Info("http server shutting down")
	shutdownErr := s.app.ShutdownWithTimeout(s.opts.ShutdownTimeout)
	// Serve 開始前に停止した場合でも Listener から戻れるよう閉じておく。
	_ = ln.Close()
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("httpserver: serve: %w", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("httpserver: shutdown: %w", shutdownErr)
	}
	return nil
}

func certificatesPresent(certFile, keyFile string) (bool, error) {
	if certFile == "" || keyFile == "" {
		return false, nil
	}
	for _, path := range []string{certFile, keyFile} {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("httpserver: stat %s: %w", path, err)
		}
	}
	return true, nil
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			logger.Warn("http request", fields...)
		} else {
			logger.Debug("http request", fields...)
		}
		return err
	}
}
