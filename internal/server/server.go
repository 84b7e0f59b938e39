// Package server exposes single-company classification over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/classify"
	"github.com/sells-group/archetype-cli/internal/cost"
	"github.com/sells-group/archetype-cli/internal/insights"
	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/table"
	"github.com/sells-group/archetype-cli/internal/taxonomy"
)

// MaxCompanies caps the companies accepted by one classify request.
const MaxCompanies = 100

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Deps holds the services behind the routes.
type Deps struct {
	Classifier classify.Classifier
	Taxonomy   *taxonomy.Taxonomy
	Calculator *cost.Calculator
	// Model is the default model for estimates.
	Model string
	// Mode is reported by /health.
	Mode classify.Mode
}

// Company is one classification request item.
type Company struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Industries  string `json:"industries,omitempty"`
}

// ClassifyRequest accepts a single company or a list.
type ClassifyRequest struct {
	Company
	Companies []Company `json:"companies,omitempty"`
}

// Classification pairs a company name with its result.
type Classification struct {
	Name   string       `json:"name"`
	Result model.Result `json:"result"`
}

// ClassifyResponse is returned by POST /v1/classify.
type ClassifyResponse struct {
	Results []Classification  `json:"results"`
	Summary *insights.Summary `json:"summary,omitempty"`
}

// EstimateRequest is the body of POST /v1/estimate.
type EstimateRequest struct {
	Count int    `json:"count"`
	Model string `json:"model,omitempty"`
}

// SummaryRequest is the body of POST /v1/summary.
type SummaryRequest struct {
	Results []model.Result `json:"results"`
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	if d.Taxonomy == nil {
		d.Taxonomy = taxonomy.Default()
	}
	if d.Calculator == nil {
		d.Calculator = cost.NewCalculator(nil, d.Taxonomy.FrameworkContext(), 0)
	}
	if d.Classifier == nil {
		d.Classifier = classify.NewKeyword(d.Taxonomy)
	}
	if d.Mode == "" {
		d.Mode = classify.ModeKeyword
	}
	h := &handlers{deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/taxonomy", h.taxonomy)
		r.Post("/classify", h.classify)
		r.Post("/estimate", h.estimate)
		r.Post("/summary", h.summary)
	})
	return r
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   string(h.deps.Mode),
	})
}

func (h *handlers) taxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Taxonomy)
}

func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	companies := req.Companies
	if len(companies) == 0 && (req.Name != "" || req.Description != "") {
		companies = []Company{req.Company}
	}
	if len(companies) == 0 {
		writeError(w, http.StatusBadRequest, "name or description is required")
		return
	}
	if len(companies) > MaxCompanies {
		writeError(w, http.StatusRequestEntityTooLarge, "too many companies")
		return
	}

	resp := ClassifyResponse{Results: make([]Classification, 0, len(companies))}
	results := make([]model.Result, 0, len(companies))
	for _, c := range companies {
		res, err := h.deps.Classifier.Classify(r.Context(), entityFor(c))
		if err != nil {
			zap.L().Error("server: classify failed", zap.String("company", c.Name), zap.Error(err))
			writeError(w, http.StatusBadGateway, "classification failed")
			return
		}
		resp.Results = append(resp.Results, Classification{Name: c.Name, Result: res})
		results = append(results, res)
	}
	if len(companies) > 1 {
		s := insights.Summarize(results)
		resp.Summary = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Count < 0 {
		writeError(w, http.StatusBadRequest, "count must be >= 0")
		return
	}
	modelID := req.Model
	if modelID == "" {
		modelID = h.deps.Model
	}
	writeJSON(w, http.StatusOK, h.deps.Calculator.Estimate(req.Count, modelID))
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := insights.Summarize(req.Results)
	var profiles []insights.ArchetypeProfile
	for _, def := range h.deps.Taxonomy.Archetypes {
		if p := insights.Profile(req.Results, def.Name); p.Count > 0 {
			profiles = append(profiles, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":  s,
		"findings": s.Findings(),
		"profiles": profiles,
	})
}

// decodeBody reads a size-capped JSON body into v, writing the error
// response itself when it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// entityFor assembles the classification text the same way the batch runner
// does for a table row.
func entityFor(c Company) model.Entity {
	t := table.New(
		[]string{"Name", "Description", classify.IndustriesField},
		[][]string{{c.Name, c.Description, c.Industries}},
	)
	rec := t.Record(0)
	industries, _ := rec.Value(classify.IndustriesField)
	return model.Entity{
		Name:       c.Name,
		Text:       classify.AssembleText(rec, "Description"),
		Industries: industries,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
