// Package devserver is an in-memory faculty API for demos and tests.
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/types"
)

// Verifier checks a bearer token and returns the email it was issued to.
type Verifier func(token string) (email string, err error)

type Option func(*Server)

// WithVerifier requires a bearer token whose email matches the path identity.
func WithVerifier(v Verifier) Option {
	return func(s *Server) { s.verify = v }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server serves
//
//	GET /faculty/{identity}
//	PUT /faculty/{identity}/sections/{section}
//
// from an in-memory map.
type Server struct {
	mu       sync.Mutex
	docs     map[string]types.Document
	fetches  map[string]int
	failNext map[string]int

	verify Verifier
	logger *zap.Logger
	router chi.Router
}

func New(opts ...Option) *Server {
	s := &Server{
		docs:     make(map[string]types.Document),
		fetches:  make(map[string]int),
		failNext: make(map[string]int),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Route("/faculty/{identity}", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.getDocument)
		r.Put("/sections/{section}", s.putSection)
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Seed stores doc for identity, replacing any previous one.
func (s *Server) Seed(identity string, doc types.Document) {
	cp := make(types.Document, len(doc))
	for name, sec := range doc {
		cp[name] = sec
	}
	s.mu.Lock()
	s.docs[identity] = cp
	s.mu.Unlock()
}

// Document returns what the server currently holds for identity.
func (s *Server) Document(identity string) (types.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[identity]
	return doc, ok
}

// Fetches counts GETs served for identity, failed ones included.
func (s *Server) Fetches(identity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[identity]
}

// FailNext makes the next n GETs for identity answer 503.
func (s *Server) FailNext(identity string, n int) {
	s.mu.Lock()
	s.failNext[identity] = n
	s.mu.Unlock()
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verify == nil {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		email, err := s.verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if email != chi.URLParam(r, "identity") {
			writeError(w, http.StatusForbidden, "token is not for this faculty member")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	s.mu.Lock()
	s.fetches[identity]++
	if s.failNext[identity] > 0 {
		s.failNext[identity]--
		s.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, "faculty api unavailable")
		return
	}
	doc, ok := s.docs[identity]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "faculty record not found")
		return
	}
	s.logger.Debug("served faculty document", zap.String("identity", identity))
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) putSection(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	name := chi.URLParam(r, "section")

	var sec types.Section
	if err := json.NewDecoder(r.Body).Decode(&sec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid section body: "+err.Error())
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[identity]
	if !ok {
		doc = types.Document{}
	}
	s.docs[identity] = doc.With(name, sec)
	s.mu.Unlock()

	s.logger.Debug("stored faculty section",
		zap.String("identity", identity),
		zap.String("section", name),
	)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
