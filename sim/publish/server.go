package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

const shutdownTimeout = 2 * time.Second

// Server is a Sink that keeps the latest sample and serves it over HTTP:
//
//	GET /api/v1/latest            whole sample
//	GET /api/v1/channels/{name}   one channel
//	GET /api/v1/events            event log, once the run has finished
//	GET /metrics                  Prometheus gauges, when a PromSink is attached
//	GET /healthz
//
// Add ?format=msgpack for MessagePack instead of JSON.
type Server struct {
	mu     sync.RWMutex
	latest *record
	events []eventRecord

	prom   *PromSink
	router *mux.Router
	srv    *http.Server
	addr   net.Addr
}

// NewServer builds the routes. prom may be nil.
func NewServer(prom *PromSink) *Server {
	s := &Server{prom: prom, router: mux.NewRouter()}
	s.router.HandleFunc("/api/v1/latest", s.getLatest).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/channels/{name}", s.getChannel).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/events", s.getEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if prom != nil {
		s.router.Handle("/metrics", prom.Handler())
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start binds addr and serves in the background. Bind failures are
// returned; only errors after the listener is up are logged.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http server listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr()
	s.srv = &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	logrus.Infof("serving plant state on %s", s.addr)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("http server: %v", err)
		}
	}()
	return nil
}

// Addr is the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Publish implements Sink.
func (s *Server) Publish(ctx context.Context, sample trace.Sample) error {
	r := toRecord(sample)
	s.mu.Lock()
	s.latest = &r
	s.mu.Unlock()
	if s.prom != nil {
		return s.prom.Publish(ctx, sample)
	}
	return nil
}

// RecordEvents implements EventRecorder.
func (s *Server) RecordEvents(_ context.Context, runID string, entries []fault.Entry) error {
	events := make([]eventRecord, len(entries))
	for i, e := range entries {
		events[i] = eventRecord{RunID: runID, Time: e.Time, Source: e.Source, Message: e.Message}
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

// Close shuts the listener down when Start was called.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) getLatest(w http.ResponseWriter, req *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest == nil {
		http.Error(w, "no sample yet", http.StatusServiceUnavailable)
		return
	}
	writeResponse(w, req, latest)
}

func (s *Server) getChannel(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest == nil {
		http.Error(w, "no sample yet", http.StatusServiceUnavailable)
		return
	}
	v, ok := latest.Values[name]
	if !ok {
		http.Error(w, "unknown channel "+name, http.StatusNotFound)
		return
	}
	writeResponse(w, req, channelValue{Name: name, Time: latest.Time, Value: v})
}

func (s *Server) getEvents(w http.ResponseWriter, req *http.Request) {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()
	if events == nil {
		events = []eventRecord{}
	}
	writeResponse(w, req, events)
}

type eventRecord struct {
	RunID   string  `json:"run_id,omitempty"`
	Time    float64 `json:"time"`
	Source  string  `json:"source,omitempty"`
	Message string  `json:"message"`
}

type channelValue struct {
	Name  string  `json:"name"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

func writeResponse(w http.ResponseWriter, req *http.Request, data any) {
	var err error
	if req.URL.Query().Get("format") == "msgpack" {
		w.Header().Set("Content-Type", "application/x-msgpack")
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		err = enc.Encode(data)
	} else {
		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(data)
	}
	if err != nil {
		logrus.Warnf("writing response: %v", err)
	}
}
