package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

const maxMessageSize = 4 << 20

// ServeStdio は改行区切りの JSON-RPC メッセージを r から読み、応答を w へ書き込みます。
// 入力が EOF に達した場合は nil を返します。
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg := append([]byte(nil), line...)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	out := &lineWriter{w: w}
	s.logger.Info("mcp stdio transport started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil && !errors.Is(err, io.EOF) {
						return fmt.Errorf("mcp: read stdin: %w", err)
					}
				default:
				}
				s.logger.Info("mcp stdio transport closed")
				return nil
			}
			resp := s.HandleMessage(ctx, msg)
			if resp == nil {
				continue
			}
			if err := out.writeLine(resp); err != nil {
				return fmt.Errorf("mcp: write stdout: %w", err)
			}
		}
	}
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(append(b, '\n')); err != nil {
		return err
	}
	if f, ok := l.w.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
	return nil
}
