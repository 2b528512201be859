// Package web serves the editor backend as a JSON API for the UI shell.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/grantoftegaard/garden/internal/garden"
	"github.com/grantoftegaard/garden/internal/legend"
	"github.com/grantoftegaard/garden/internal/session"
	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/logging"
	"github.com/grantoftegaard/garden/pkg/metrics"
	"github.com/grantoftegaard/garden/pkg/model"
)

// maxBodyBytes bounds request bodies; a 1600x1000 raw raster is about
// 8.5 MB once base64 encoded.
const maxBodyBytes = 32 << 20

// legendLabelWidth is the width plant names are wrapped at.
const legendLabelWidth = 15

// Server owns the single editor session of the UI shell. The mutex keeps the
// session value consistent in memory; it does not serialize layout writes.
type Server struct {
	svc         *garden.Service
	metrics     *metrics.Registry
	log         *logging.Logger
	outputImage string

	mu   sync.Mutex
	sess session.Session
}

// NewServer creates a server over svc. outputImage is the preview file
// served at /layout.png.
func NewServer(svc *garden.Service, m *metrics.Registry, log *logging.Logger, outputImage string) *Server {
	return &Server{
		svc:         svc,
		metrics:     m,
		log:         log,
		outputImage: outputImage,
		sess:        session.New(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/layout.png", s.handlePreview)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/layout", func(r chi.Router) {
			r.Get("/", s.handleLayout)
			r.Post("/", s.handleEditLayout)
			r.Get("/history", s.handleHistory)
			r.Get("/download", s.handleDownload)
		})
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Post("/{action}", s.handleTransition)
			r.Put("/form", s.handleForm)
		})
		r.Post("/plants", s.handleAddPlant)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Session returns the current editor session.
func (s *Server) Session() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

type legendRow struct {
	model.LegendEntry
	Label string `json:"label"`
}

type layoutResponse struct {
	Key       model.SnapshotKey `json:"key"`
	CreatedAt time.Time         `json:"created_at"`
	Layout    *model.Snapshot   `json:"layout"`
	Legend    []legendRow       `json:"legend"`
}

func newLayoutResponse(snap *model.Snapshot) layoutResponse {
	rows := make([]legendRow, len(snap.Legend))
	for i, e := range snap.Legend {
		rows[i] = legendRow{LegendEntry: e, Label: legend.FormatName(e.Name, legendLabelWidth)}
	}
	return layoutResponse{Key: snap.Key, CreatedAt: snap.CreatedAt, Layout: snap, Legend: rows}
}

type toolOption struct {
	ID    session.Tool `json:"id"`
	Label string       `json:"label"`
}

type sessionResponse struct {
	session.Session
	Tools []toolOption `json:"tools"`
}

func newSessionResponse(sess session.Session) sessionResponse {
	tools := make([]toolOption, len(session.Tools))
	for i, t := range session.Tools {
		tools[i] = toolOption{ID: t, Label: session.ToolLabel(t)}
	}
	return sessionResponse{Session: sess, Tools: tools}
}

// editRequest is the body of POST /api/layout.
type editRequest struct {
	garden.Submission
	Edits []legend.EntryEdit `json:"edits"`
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.svc.Current()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	keys, err := s.svc.History()
	if err != nil {
		writeError(w, err)
		return
	}
	if keys == nil {
		keys = []model.SnapshotKey{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *Server) handleDownload(w http.ResponseWriter, _ *http.Request) {
	name, data, err := s.svc.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.outputImage); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "E_PREVIEW_NOT_FOUND", Message: "no preview rendered yet"})
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, s.outputImage)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(s.Session()))
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		next session.Session
		err  error
	)
	switch action := chi.URLParam(r, "action"); action {
	case "add":
		next, err = s.sess.StartAdd(s.svc.NewForm())
	case "edit":
		next, err = s.sess.StartEdit()
	case "cancel":
		next, err = s.sess.Cancel()
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "E_NOT_FOUND", Message: "unknown session action " + action})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess = next
	writeJSON(w, http.StatusOK, newSessionResponse(s.sess))
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	var form session.PlantForm
	if !decodeBody(w, r, &form) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.sess.WithForm(form)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess = next
	writeJSON(w, http.StatusOK, newSessionResponse(s.sess))
}

func (s *Server) handleAddPlant(w http.ResponseWriter, r *http.Request) {
	var sub garden.Submission
	if !decodeBody(w, r, &sub) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, snap, err := s.svc.AddPlant(s.sess, sub)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess = next
	writeJSON(w, http.StatusCreated, newLayoutResponse(snap))
}

func (s *Server) handleEditLayout(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, snap, err := s.svc.EditLayout(s.sess, req.Submission, req.Edits)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess = next
	writeJSON(w, http.StatusCreated, newLayoutResponse(snap))
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "E_BAD_REQUEST", Message: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errclass.Code(err)
	body := errorBody{Error: code, Message: err.Error()}
	var ge *errclass.GardenError
	if errors.As(err, &ge) && ge.Message != "" {
		body.Message = ge.Message
	}
	if code == "" {
		body.Error = "E_INTERNAL"
	}
	writeJSON(w, statusFor(err), body)
}

// statusFor maps an error class to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errclass.ErrFormInvalid),
		errors.Is(err, errclass.ErrInvalidTransition),
		errors.Is(err, errclass.ErrNoChange),
		errors.Is(err, errclass.ErrLegendMetadataMissing),
		errors.Is(err, errclass.ErrNameInvalid),
		errors.Is(err, errclass.ErrRasterInvalid):
		return http.StatusBadRequest
	case errors.Is(err, errclass.ErrSnapshotNotFound),
		errors.Is(err, errclass.ErrNoSnapshots),
		errors.Is(err, errclass.ErrLegendEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, errclass.ErrColorInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
