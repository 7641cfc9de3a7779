package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig wires a read-only introspection router: liveness, a
// point-in-time simulation snapshot, and Prometheus metrics. Grounded on the
// existing chi-based RouterConfig dependency-injection pattern — narrowed
// from a full game/streaming API surface down to the three endpoints an
// operator or spectator dashboard needs, with no write path into the
// simulation at all.
type RouterConfig struct {
	Status      *StatusPublisher
	RateLimiter *IPRateLimiter
	CORSOrigins []string
}

// NewRouter builds the chi router for the introspection surface.
func NewRouter(cfg RouterConfig) *chi.Mux { //nolint:staticcheck // constructor name mirrors existing router.go
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetricsMiddleware)
	r.Use(middleware.Timeout(5 * time.Second))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.Get("/healthz", healthzHandler(cfg.Status))
	r.Get("/debugz/snapshot", debugSnapshotHandler(cfg.Status))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestMetricsMiddleware records RecordRequest for every handled request.
func requestMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		RecordRequest(r.Method, routePattern(r), ww.Status(), time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}

type healthResponse struct {
	OK               bool  `json:"ok"`
	CurrentFrame     int64 `json:"current_frame"`
	ConnectedPlayers int   `json:"connected_players"`
	Stalled          bool  `json:"stalled"`
	DesyncDetected   bool  `json:"desync_detected"`
}

// healthzHandler reports liveness plus the two conditions an operator cares
// about immediately: the loop stalling on missing input, and a latched
// desync. Either sets http.StatusServiceUnavailable so a load balancer or
// orchestrator can treat the process as unhealthy without parsing the body.
func healthzHandler(sp *StatusPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sp.Current()
		resp := healthResponse{
			OK:               !s.Stalled && !s.DesyncDetected,
			CurrentFrame:     s.CurrentFrame,
			ConnectedPlayers: s.ConnectedPlayers,
			Stalled:          s.Stalled,
			DesyncDetected:   s.DesyncDetected,
		}
		w.Header().Set("Content-Type", "application/json")
		if !resp.OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}

type debugSnapshotResponse struct {
	CurrentFrame     int64  `json:"current_frame"`
	ConnectedPlayers int    `json:"connected_players"`
	Stalled          bool   `json:"stalled"`
	DesyncDetected   bool   `json:"desync_detected"`
	DesyncFrame      int64  `json:"desync_frame,omitempty"`
	SnapshotHash     string `json:"snapshot_hash"`
	SnapshotGobB64   string `json:"snapshot_gob_base64"`
}

// debugSnapshotHandler exposes the last published world snapshot for
// offline inspection (decode the base64 gob blob against
// internal/world.World.Restore in a scratch process). It never mutates
// anything the simulation thread owns.
func debugSnapshotHandler(sp *StatusPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sp.Current()
		resp := debugSnapshotResponse{
			CurrentFrame:     s.CurrentFrame,
			ConnectedPlayers: s.ConnectedPlayers,
			Stalled:          s.Stalled,
			DesyncDetected:   s.DesyncDetected,
			DesyncFrame:      s.DesyncFrame,
			SnapshotHash:     formatHex64(s.SnapshotHash),
			SnapshotGobB64:   base64.StdEncoding.EncodeToString(s.Snapshot),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func formatHex64(h uint64) string {
	const hexdigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexdigits[h&0xf]
		h >>= 4
	}
	return string(buf)
}
