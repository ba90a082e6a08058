package server

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunedash/internal/session"
	"github.com/desertthunder/tunedash/internal/shared"
)

// Completer consumes the login callback URL. [*session.Manager] implements it.
type Completer interface {
	CompleteCallback(u *url.URL) (session.Result, *url.URL, bool, error)
}

var _ Completer = (*session.Manager)(nil)

// CallbackResult is the outcome of a login callback.
type CallbackResult struct {
	Result session.Result
	err    error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler serves the page the backend redirects the browser to after login.
//
// The first request carrying a query is the callback. On success it stores the session and
// answers 303 to the same path without the query, which renders the "close this window" page.
// Any later callback is rejected.
type CallbackHandler struct {
	completer   Completer
	path        string
	logger      *log.Logger
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler for path ("/" when empty).
func NewCallbackHandler(completer Completer, path string, logger *log.Logger) *CallbackHandler {
	if path == "" {
		path = "/"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CallbackHandler{
		completer:  completer,
		path:       path,
		logger:     logger,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the callback and the query-less landing page.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.RawQuery == "" {
		h.landing(w)
		return
	}

	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	res, stripped, ok, err := h.completer.CompleteCallback(r.URL)
	switch {
	case err != nil:
		h.logger.Error("failed to store session", "error", err)
		h.Send(CallbackResult{err: fmt.Errorf("failed to store session: %w", err)})
		h.render(w, http.StatusInternalServerError, failurePage)
		return
	case !ok:
		reason := r.URL.Query().Get(session.LoginParam)
		h.logger.Warn("login callback rejected", "login", reason)
		h.Send(CallbackResult{err: fmt.Errorf("%w: login=%q", shared.ErrCallbackRejected, reason)})
		h.render(w, http.StatusBadRequest, failurePage)
		return
	}

	h.Send(CallbackResult{Result: res})
	http.Redirect(w, r, stripped.RequestURI(), http.StatusSeeOther)
}

func (h *CallbackHandler) landing(w http.ResponseWriter) {
	h.mu.Lock()
	hit := h.callbackHit
	h.mu.Unlock()

	if !hit {
		h.render(w, http.StatusOK, waitingPage)
		return
	}
	h.render(w, http.StatusOK, successPage)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

type page struct {
	Title   string
	Heading string
	Body    string
	Color   string
}

var (
	successPage = page{"Logged in", "✓ Logged in", "You can close this window and return to the terminal.", "#1DB954"}
	failurePage = page{"Login failed", "Login failed", "Run tunedash auth login again from the terminal.", "#FF6B6B"}
	waitingPage = page{"tunedash", "Waiting for login", "Finish logging in with the backend; this page updates when it redirects here.", "#666666"}
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Heading}}</h1>
        <p>{{.Body}}</p>
    </div>
</body>
</html>
`))

func (h *CallbackHandler) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// The status line is already out, so a failed write only matters to the log.
	if err := pageTemplate.Execute(w, p); err != nil {
		h.logger.Debug("failed to render page", "page", p.Title, "error", err)
	}
}
