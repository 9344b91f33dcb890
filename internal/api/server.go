package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/cschnabel/scorekeeper/internal/derive"
	"github.com/cschnabel/scorekeeper/internal/model"
	"github.com/cschnabel/scorekeeper/internal/render"
	"github.com/cschnabel/scorekeeper/internal/store"
	"github.com/cschnabel/scorekeeper/internal/transfer"
)

const maxImportBytes = 16 << 20

type Server struct {
	store     *store.Store
	staticDir string
	assets    fs.FS
	hub       *Hub
	now       func() time.Time
}

// NewServer serves the store over HTTP. Static files come from staticDir
// when it exists, otherwise from assets.
func NewServer(st *store.Store, staticDir string, assets fs.FS) *Server {
	s := &Server{
		store:     st,
		staticDir: staticDir,
		assets:    assets,
		hub:       NewHub(),
		now:       time.Now,
	}
	st.Subscribe(func(version uint64) {
		s.hub.Broadcast(ChangeMessage{Type: changeType, Version: version})
	})
	return s
}

// Handler is the full router, also mounted by the desktop shell.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/matches", s.handleListMatches).Methods(http.MethodGet)
	api.HandleFunc("/matches", s.handleCreateMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{index:[0-9]+}", s.handleEditMatch).Methods(http.MethodGet)
	api.HandleFunc("/matches/{index:[0-9]+}", s.handleUpdateMatch).Methods(http.MethodPut)
	api.HandleFunc("/matches/{index:[0-9]+}", s.handleDeleteMatch).Methods(http.MethodDelete)
	api.HandleFunc("/views", s.handleViews).Methods(http.MethodGet)
	api.HandleFunc("/eligible-winners", s.handleEligibleWinners).Methods(http.MethodGet)
	api.HandleFunc("/chart.svg", s.handleChartSVG).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/ws", s.hub.ServeWS)

	if static := s.staticHandler(); static != nil {
		r.PathPrefix("/").Handler(static)
	}

	return withCORS(r)
}

func (s *Server) staticHandler() http.Handler {
	if s.staticDir != "" {
		if fi, err := os.Stat(s.staticDir); err == nil && fi.IsDir() {
			return http.FileServer(http.Dir(s.staticDir))
		}
		log.Printf("static dir %s not found, using embedded page", s.staticDir)
	}
	if s.assets != nil {
		return http.FileServer(http.FS(s.assets))
	}
	return nil
}

func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Printf("encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(out, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		log.Printf("http %d: %s", status, message)
	}
	writeJSON(w, status, map[string]any{
		"error": message,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, derive.ErrTooFewPlayers),
		errors.Is(err, derive.ErrDuplicatePlayer),
		errors.Is(err, derive.ErrUnknownWinner),
		errors.Is(err, transfer.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrStaleSession),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrIndexOutOfRange):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type matchesResponse struct {
	Version uint64         `json:"version"`
	Matches []derive.Entry `json:"matches"`
}

type editResponse struct {
	Session store.Session `json:"session"`
	Draft   model.Draft   `json:"draft"`
}

type viewsResponse struct {
	Version uint64 `json:"version"`
	derive.Views
	Layout render.Chart `json:"layout"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// refresh picks up writes other processes made to the same database.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) bool {
	if err := s.store.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	return true
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}
	snap := s.store.Snapshot()
	entries := make([]derive.Entry, 0, len(snap.Matches))
	for i, m := range snap.Matches {
		entries = append(entries, derive.Entry{Index: i, Match: m})
	}
	writeJSON(w, http.StatusOK, matchesResponse{Version: snap.Version, Matches: entries})
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := s.store.Save(r.Context(), s.store.NewSession(), d)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleEditMatch(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok || !s.refresh(w, r) {
		return
	}
	sess, d, err := s.store.Edit(index)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, editResponse{Session: sess, Draft: d})
}

func (s *Server) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := s.store.Save(r.Context(), sess, d)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), sess); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionFor builds the edit session a PUT or DELETE acts through. The
// version query parameter is the list version the client last saw; the store
// compares it before it looks at the index.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (store.Session, bool) {
	index, ok := pathIndex(w, r)
	if !ok {
		return store.Session{}, false
	}
	raw := strings.TrimSpace(r.URL.Query().Get("version"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "version required")
		return store.Session{}, false
	}
	version, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version")
		return store.Session{}, false
	}
	return store.Session{Index: index, Editing: true, Version: version}, true
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match index")
		return 0, false
	}
	return index, true
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}
	snap := s.store.Snapshot()
	views := derive.ComputeViews(snap.Matches)
	writeJSON(w, http.StatusOK, viewsResponse{
		Version: snap.Version,
		Views:   views,
		Layout:  render.Layout(views.Chart),
	})
}

func (s *Server) handleEligibleWinners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, derive.EligibleWinners(r.URL.Query()["name"]))
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}
	chart := render.Layout(derive.ChartSeries(s.store.Snapshot().Matches))
	var buf bytes.Buffer
	if err := render.SVG(&buf, chart); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}
	var buf bytes.Buffer
	if err := transfer.Export(&buf, s.store.Snapshot().Matches); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, transfer.ExportFilename(s.now())))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	matches, err := transfer.Decode(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		if errors.Is(err, transfer.ErrInvalidFormat) {
			writeError(w, http.StatusBadRequest, "invalid format")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.ReplaceAll(r.Context(), matches); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	log.Printf("imported matches: count=%d", len(matches))
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(matches)})
}
