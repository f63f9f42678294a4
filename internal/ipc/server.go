package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// idleTimeout closes a control connection that stops sending requests.
const idleTimeout = 5 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers newline-delimited JSON requests until ctx ends or the
// listener closes. A connection may carry several requests in sequence.
func Serve(parent context.Context, listener net.Listener, handler Handler) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	unwatch := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer unwatch()

	var conns errgroup.Group
	var acceptErr error
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				acceptErr = fmt.Errorf("accept control connection: %w", err)
			}
			break
		}
		conns.Go(func() error {
			serveConn(ctx, conn, handler)
			return nil
		})
	}

	cancel()
	_ = conns.Wait()
	return acceptErr
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	unwatch := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer unwatch()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))

		var req Request
		if err := dec.Decode(&req); err != nil {
			if !quietClose(err) {
				_ = enc.Encode(Response{Error: fmt.Sprintf("decode request: %v", err)})
			}
			return
		}
		if err := enc.Encode(handler.Handle(ctx, req)); err != nil {
			return
		}
	}
}

// quietClose reports read errors that end a connection without a reply.
func quietClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}
