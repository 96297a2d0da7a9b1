// Package httpapi exposes the document store over HTTP/JSON: a health
// endpoint for connectivity probes, full-collection and cursor-paged reads,
// and version-assigning upserts. All /v1 routes require a bearer token.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ddanilovs/campuslink/internal/common"
	"github.com/ddanilovs/campuslink/internal/logging"
	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/ddanilovs/campuslink/internal/server/auth"
	"github.com/ddanilovs/campuslink/internal/server/repositories/documents"
	"github.com/ddanilovs/campuslink/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const defaultPageLimit = 50

type ctxKey int

const userIDKey ctxKey = iota

// Server bundles the router dependencies.
type Server struct {
	service   *services.DocumentService
	secretKey []byte
	logger    logging.Logger
}

func NewServer(service *services.DocumentService, secretKey []byte, logger logging.Logger) *Server {
	return &Server{service: service, secretKey: secretKey, logger: logger}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/{collection}", s.handleList)
		r.Put("/{collection}/{id}", s.handleUpsert)
	})

	return r
}

// authMiddleware verifies the bearer token and stores the user id in the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.secretKey)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleList serves both access patterns on a collection: without a limit
// parameter it returns the full collection (tombstones included) for sync
// pulls; with one it returns a cursor page of live documents.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := models.Collection(chi.URLParam(r, "collection"))
	if !collection.Valid() {
		writeError(w, http.StatusBadRequest, "unknown collection")
		return
	}

	q := r.URL.Query()
	if q.Get("limit") == "" && q.Get("after") == "" {
		items, err := s.service.FetchAll(r.Context(), collection)
		if err != nil {
			s.serveError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pageResponse{Items: items})
		return
	}

	limit := defaultPageLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := s.service.Query(r.Context(), collection, limit, q.Get("after"), documents.PageOrder(q.Get("order")))
	if err != nil {
		s.serveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: page.Items, NextCursor: page.NextCursor})
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	collection := models.Collection(chi.URLParam(r, "collection"))
	if !collection.Valid() {
		writeError(w, http.StatusBadRequest, "unknown collection")
		return
	}

	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid document body")
		return
	}
	doc.Collection = collection
	doc.ID = chi.URLParam(r, "id")
	if doc.ID == "" || len(doc.Payload) == 0 {
		writeError(w, http.StatusBadRequest, "missing id or payload")
		return
	}

	userID, _ := r.Context().Value(userIDKey).(string)

	stored, err := s.service.Upsert(r.Context(), userID, doc)
	if err != nil {
		s.serveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) serveError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	if errors.Is(err, common.ErrUnknownCollection) {
		writeError(w, http.StatusBadRequest, "unknown collection")
		return
	}
	if errors.Is(err, documents.ErrMalformedCursor) {
		writeError(w, http.StatusBadRequest, "malformed cursor")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

type pageResponse struct {
	Items      []models.Document `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
