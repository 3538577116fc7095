package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spectralsuite/nirspec/internal/database"
)

// Handlers holds the request handlers for the results API
type Handlers struct {
	db        *database.Client
	logger    *zap.SugaredLogger
	formatter *Formatter
}

// NewHandlers creates the handler set
func NewHandlers(db *database.Client, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{db: db, logger: logger, formatter: NewFormatter()}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.respond(w, req, map[string]string{"status": "ok"})
}

// ListRuns returns every pipeline run, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	runs, err := h.db.ListRuns()
	if err != nil {
		h.fail(w, req, err)
		return
	}
	h.respond(w, req, runs)
}

// RunFeatures returns the feature rows of one run.
func (h *Handlers) RunFeatures(w http.ResponseWriter, req *http.Request) {
	runID := mux.Vars(req)["id"]
	records, err := h.db.FeaturesForRun(runID)
	if err != nil {
		h.fail(w, req, err)
		return
	}
	if len(records) == 0 {
		h.notFound(w, req, "no features for run "+runID)
		return
	}
	h.respond(w, req, records)
}

// RunMixtures returns the mixture rows of one run.
func (h *Handlers) RunMixtures(w http.ResponseWriter, req *http.Request) {
	runID := mux.Vars(req)["id"]
	records, err := h.db.MixturesForRun(runID)
	if err != nil {
		h.fail(w, req, err)
		return
	}
	if len(records) == 0 {
		h.notFound(w, req, "no mixtures for run "+runID)
		return
	}
	h.respond(w, req, records)
}

// SpectrumFeatures returns one spectrum's feature rows across runs.
func (h *Handlers) SpectrumFeatures(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	records, err := h.db.FeaturesForSpectrum(name)
	if err != nil {
		h.fail(w, req, err)
		return
	}
	if len(records) == 0 {
		h.notFound(w, req, "no features for spectrum "+name)
		return
	}
	h.respond(w, req, records)
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data); err != nil {
		h.logger.Errorf("writing response: %v", err)
	}
}

func (h *Handlers) fail(w http.ResponseWriter, req *http.Request, err error) {
	h.logger.Errorf("handler error: %v", err)
	if werr := h.formatter.WriteResponseStatus(w, req, http.StatusInternalServerError, map[string]string{"error": err.Error()}); werr != nil {
		h.logger.Errorf("writing response: %v", werr)
	}
}

func (h *Handlers) notFound(w http.ResponseWriter, req *http.Request, msg string) {
	if werr := h.formatter.WriteResponseStatus(w, req, http.StatusNotFound, map[string]string{"error": msg}); werr != nil {
		h.logger.Errorf("writing response: %v", werr)
	}
}
