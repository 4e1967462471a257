package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
)

type Server struct {
	Router        *mux.Router
	ConfigStore   store.ConfigStore
	RevisionStore store.RevisionStore
	HealthStore   store.HealthStore
	srv           *http.Server
}

// NewServer builds a server listening on host:port. revisions and health
// may be nil when the server runs without a database.
func NewServer(
	configStore store.ConfigStore,
	revisions store.RevisionStore,
	health store.HealthStore,
	host string,
	port string,
) *Server {
	router := mux.NewRouter().UseEncodedPath()
	accessLog := log.StandardLogger().WriterLevel(log.InfoLevel)
	srv := &http.Server{
		Handler: handlers.LoggingHandler(accessLog, handlers.RecoveryHandler(
			handlers.RecoveryLogger(log.StandardLogger()),
		)(router)),
		Addr:         host + ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:        router,
		ConfigStore:   configStore,
		RevisionStore: revisions,
		HealthStore:   health,
		srv:           srv,
	}
}

// Handler is the router wrapped in access logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Start() error {
	log.WithField("addr", s.srv.Addr).Info("starting server")
	return s.srv.ListenAndServe()
}

// StartWithListener serves on l until Shutdown is called
func (s *Server) StartWithListener(l net.Listener) error {
	log.WithField("addr", l.Addr().String()).Info("starting server")
	return s.srv.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
