// Package api serves the galeractl HTTP API: cluster and node registration,
// provisioning runs, database introspection, live provisioning events,
// health and metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/introspect"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/store"
)

// Provisioner runs provisioning against a peer set snapshot.
type Provisioner interface {
	Provision(ctx context.Context, peers cluster.PeerSet) (*provisioning.Result, error)
	ProvisionNode(ctx context.Context, peers cluster.PeerSet, name string) (*provisioning.Result, error)
}

// ProvisionerFactory builds a Provisioner for one run. Credentials are read
// when the run starts, so rotating them needs no restart.
type ProvisionerFactory func() (Provisioner, error)

// Inspector reads the live state of a node's database server.
type Inspector interface {
	Inspect(ctx context.Context, host string, creds introspect.Credentials) (*introspect.Report, error)
}

// Options wires the API to its collaborators.
type Options struct {
	Store          *store.Store
	NewProvisioner ProvisionerFactory
	Inspector      Inspector
	Events         *provisioning.Broadcaster
	Logger         logr.Logger
	AllowedOrigins []string
}

// Server holds the API handlers.
type Server struct {
	store          *store.Store
	newProvisioner ProvisionerFactory
	inspector      Inspector
	hub            *hub
	log            logr.Logger
}

// New builds the API router.
func New(opts Options) http.Handler {
	s := &Server{
		store:          opts.Store,
		newProvisioner: opts.NewProvisioner,
		inspector:      opts.Inspector,
		hub:            newHub(opts.Events, opts.AllowedOrigins, opts.Logger),
		log:            opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/events", s.hub.handleConnect)

	r.Route("/clusters", func(r chi.Router) {
		r.Post("/", s.createCluster)
		r.Get("/", s.listClusters)
		r.Route("/{clusterID}", func(r chi.Router) {
			r.Get("/", s.getCluster)
			r.Get("/nodes", s.listNodes)
			r.Post("/nodes", s.addNode)
			r.Post("/provision", s.provision)
			r.Post("/nodes/{nodeName}/join", s.joinNode)
		})
	})
	r.Get("/nodes/{nodeID}/db-info", s.dbInfo)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func requestLogger(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.V(1).Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"requestID", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
