package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reflex-go/reflex"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live reactive graph over HTTP",
		Long: `Serve a reactive graph over HTTP.

The graph holds a named cell collection plus a per-interval
uptime ticker. Endpoints:

  GET  /healthz       liveness check
  GET  /metrics       Prometheus metrics
  GET  /cells         current cell names
  POST /cells/{name}  write a cell (JSON body: {"value": ...})
  GET  /ws            WebSocket feed of every output render

Writes through POST invalidate dependents and push fresh renders
to every connected WebSocket client.

Examples:
  reflex serve
  reflex serve --addr=:8080 --interval=5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":3000", "Address to listen on")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Uptime tick interval")

	return cmd
}

// renderEvent is one output render pushed to WebSocket clients.
type renderEvent struct {
	Output string `json:"output"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
	Clear  bool   `json:"clear,omitempty"`
}

// wsHub fans every render event out to the connected clients.
type wsHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	upgrader websocket.Upgrader
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // demo surface, accept all origins
			},
		},
	}
}

// RenderValue implements reflex.RenderSink.
func (h *wsHub) RenderValue(name string, value any) {
	h.broadcast(renderEvent{Output: name, Value: value})
}

// RenderError implements reflex.RenderSink.
func (h *wsHub) RenderError(name string, err error) {
	h.broadcast(renderEvent{Output: name, Error: err.Error()})
}

// RenderClear implements reflex.RenderSink.
func (h *wsHub) RenderClear(name string) {
	h.broadcast(renderEvent{Output: name, Clear: true})
}

func (h *wsHub) broadcast(ev renderEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// handleWebSocket upgrades the connection and holds it until the
// client disconnects.
func (h *wsHub) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func runServe(addr string, interval time.Duration) error {
	printBanner()

	registry := prometheus.NewRegistry()
	metrics := reflex.NewMetrics(reflex.WithRegistry(registry))

	g := reflex.NewGraph(reflex.WithMetrics(metrics))
	defer g.Close()

	cells := reflex.NewValues(g)
	uptime := reflex.NewValue(g, time.Duration(0))
	started := time.Now()

	reflex.NewObserver(g, func() error {
		reflex.Isolate(func() {
			uptime.Set(time.Since(started).Round(time.Second))
		})
		reflex.InvalidateLater(g, interval)
		return nil
	}, reflex.WithObserverName("uptime"))

	hub := newWSHub()

	reflex.NewOutput(g, "uptime", hub, func() (any, error) {
		return uptime.Get().String(), nil
	})
	reflex.NewOutput(g, "cells", hub, func() (any, error) {
		snapshot := make(map[string]any)
		for _, name := range cells.Names() {
			snapshot[name] = cells.Get(name)
		}
		return snapshot, nil
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/ws", hub.handleWebSocket)

	r.Get("/cells", func(w http.ResponseWriter, req *http.Request) {
		var names []string
		g.Dispatch(func() { names = cells.Names() })
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(names)
	})

	r.Post("/cells/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")

		var body struct {
			Value any `json:"value"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		g.Dispatch(func() { cells.Set(name, body.Value) })
		w.WriteHeader(http.StatusNoContent)
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	success("listening on %s", addr)
	info("metrics at /metrics, live feed at /ws")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println()
		info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
