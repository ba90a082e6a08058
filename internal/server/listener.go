package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunedash/internal/session"
	"github.com/desertthunder/tunedash/internal/shared"
)

// DefaultLinger is how long the listener stays up after the callback so the browser can
// follow the redirect to the landing page.
const DefaultLinger = time.Second

// CallbackServer runs the local listener for a single login.
type CallbackServer struct {
	cfg     shared.CallbackConfig
	handler *CallbackHandler
	router  *BasicRouter
	logger  *log.Logger

	// Linger delays shutdown after the callback result arrives.
	Linger time.Duration

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewCallbackServer wires a [CallbackHandler] for cfg.Path into a [BasicRouter].
func NewCallbackServer(cfg shared.CallbackConfig, completer Completer, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	handler := NewCallbackHandler(completer, cfg.Path, logger)
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger), NoStore)
	router.Handler(handler)

	return &CallbackServer{
		cfg:     cfg,
		handler: handler,
		router:  router,
		logger:  logger,
		Linger:  DefaultLinger,
	}
}

// Bind opens the listening socket. It is called by [CallbackServer.Listen] when needed.
func (s *CallbackServer) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	return nil
}

// Addr is the bound address, or the configured one before [CallbackServer.Bind].
func (s *CallbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr()
}

// URL is the callback URL on the bound address.
func (s *CallbackServer) URL() string {
	return "http://" + s.Addr() + s.cfg.Path
}

// Listen serves until the callback arrives, ctx ends, or the configured timeout passes.
//
// A rejected callback is returned as an error wrapping [shared.ErrCallbackRejected]; a
// timeout wraps [shared.ErrTimeout].
func (s *CallbackServer) Listen(ctx context.Context) (session.Result, error) {
	if err := s.Bind(); err != nil {
		return session.Result{}, err
	}

	s.mu.Lock()
	s.srv = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	srv, ln := s.srv, s.listener
	s.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	s.logger.Info("waiting for login callback", "url", s.URL(), "routes", s.router.Routes())

	timeout := s.cfg.Timeout()
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var (
		res session.Result
		err error
	)
	select {
	case r := <-s.handler.Result():
		res, err = r.Result, r.Error()
		if s.Linger > 0 {
			lingerTimer := time.NewTimer(s.Linger)
			select {
			case <-lingerTimer.C:
			case <-ctx.Done():
				lingerTimer.Stop()
			}
		}
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = fmt.Errorf("%w: no login callback after %s", shared.ErrTimeout, timeout)
	case e, ok := <-serveErr:
		if ok {
			err = fmt.Errorf("callback server failed: %w", e)
		} else {
			err = fmt.Errorf("callback server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Debug("callback server shutdown", "error", shutdownErr)
	}

	s.mu.Lock()
	s.listener, s.srv = nil, nil
	s.mu.Unlock()
	return res, err
}
