package devtools

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sigil-ui/sigil/pkg/observer"
)

// Server wires the inspector endpoints onto a chi router:
//
//	GET /healthz   liveness probe
//	GET /events    WebSocket event stream
//	GET /metrics   Prometheus scrape endpoint
//	GET /snapshot  JSON snapshot of the tracked entity set
type Server struct {
	broadcaster *Broadcaster
	observers   []*observer.Observer
	gatherer    prometheus.Gatherer
	router      chi.Router
}

// NewServer builds the inspector over the given broadcaster.
// If gatherer is nil the default Prometheus gatherer is used.
func NewServer(b *Broadcaster, gatherer prometheus.Gatherer, observers ...*observer.Observer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		broadcaster: b,
		observers:   observers,
		gatherer:    gatherer,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/events", b.HandleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/snapshot", s.handleSnapshot)
	s.router = r

	return s
}

// Handler returns the inspector's HTTP handler for mounting.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// snapshot is the /snapshot response payload.
type snapshot struct {
	Observers []observerSnapshot `json:"observers"`
	Clients   int                `json:"clients"`
}

type observerSnapshot struct {
	Tracked  int      `json:"tracked"`
	Entities []string `json:"entities"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := snapshot{Clients: s.broadcaster.ClientCount()}
	for _, o := range s.observers {
		tracked := o.Tracked()
		os := observerSnapshot{Tracked: len(tracked)}
		for _, e := range tracked {
			os.Entities = append(os.Entities, fmt.Sprintf("%v", e))
		}
		snap.Observers = append(snap.Observers, os)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
