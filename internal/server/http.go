package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/protocol"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"
)

// httpServer serves the JSON-RPC endpoint plus the operational surface
// (health and metrics) over plain HTTP.
type httpServer struct {
	dispatcher      *Dispatcher
	host            string
	port            int
	maxPortAttempts int

	srv  *http.Server
	addr string
}

func newHTTPServer(d *Dispatcher, host string, port, maxPortAttempts int) *httpServer {
	h := &httpServer{
		dispatcher:      d,
		host:            host,
		port:            port,
		maxPortAttempts: maxPortAttempts,
	}
	h.srv = &http.Server{
		Handler:           h.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return h
}

func (h *httpServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	r.Post("/rpc", h.handleRPC)
	r.Get("/health", h.handleHealth)
	r.Get("/metrics", h.handleMetrics)
	return r
}

// listen binds the configured port, stepping to the next port when the
// address is already in use, up to maxPortAttempts ports.
func (h *httpServer) listen() (net.Listener, error) {
	var lastErr error
	for attempt := 0; attempt < h.maxPortAttempts; attempt++ {
		addr := fmt.Sprintf("%s:%d", h.host, h.port+attempt)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			if attempt > 0 {
				logging.Warn("HTTPServer", "Port %d busy, bound %s instead", h.port, addr)
			}
			h.addr = ln.Addr().String()
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d..%d: %w", h.port, h.port+h.maxPortAttempts-1, lastErr)
}

func (h *httpServer) start() error {
	ln, err := h.listen()
	if err != nil {
		return err
	}
	go func() {
		if err := h.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTPServer", err, "HTTP server stopped unexpectedly")
		}
	}()
	logging.Info("HTTPServer", "Listening on http://%s", h.addr)
	return nil
}

func (h *httpServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			protocol.NewError(nil, protocol.CodeInvalidRequest, "request body is not valid JSON"))
		return
	}
	if req.Jsonrpc != "2.0" {
		writeJSON(w, http.StatusBadRequest,
			protocol.NewError(req.ID, protocol.CodeInvalidRequest, "jsonrpc must be \"2.0\""))
		return
	}
	if req.Method != "tools/call" {
		writeJSON(w, http.StatusBadRequest,
			protocol.NewError(req.ID, protocol.CodeMethodNotFound,
				fmt.Sprintf("method %q is not served over HTTP; only tools/call is", req.Method)))
		return
	}

	var params protocol.CallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(w, http.StatusBadRequest,
				protocol.NewError(req.ID, protocol.CodeInvalidParams, "params must be an object with name and arguments"))
			return
		}
	}
	if params.Name == "" {
		writeJSON(w, http.StatusBadRequest,
			protocol.NewError(req.ID, protocol.CodeInvalidParams, "params.name is required"))
		return
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	result, err := h.dispatcher.CallTool(r.Context(), "http", params.Name, params.Arguments)
	if err != nil {
		code, status := protocol.MapError(err)
		writeJSON(w, status, protocol.NewError(req.ID, code, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, protocol.NewResult(req.ID, result))
}

func (h *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"
	report := h.dispatcher.Health(r.Context(), forceRefresh)

	status := http.StatusOK
	if report.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *httpServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsBody(h.dispatcher))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("HTTPServer", err, "Failed to encode response body")
	}
}
