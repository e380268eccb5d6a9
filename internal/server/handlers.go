package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/internal/normalize"
	"github.com/hyperjump/tenmon/internal/retrieval"
	"github.com/hyperjump/tenmon/internal/source"
	"github.com/hyperjump/tenmon/internal/storage"
	"github.com/hyperjump/tenmon/internal/training"
)

// noMatchResponse is returned with matched=false when neither the vector
// index nor the knowledge-base fallback produced an answer.
const noMatchResponse = "I don't have specific information about that topic in my training data."

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Matched           bool    `json:"matched"`
	Response          string  `json:"response"`
	Confidence        float64 `json:"confidence,omitempty"`
	Source            string  `json:"source,omitempty"`
	MatchedSimilarity float64 `json:"matched_similarity,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.logger.Debug("query request", zap.String("question", question))

	answer, err := s.deps.Generator.Answer(r.Context(), question)
	if errors.Is(err, retrieval.ErrNoMatch) {
		s.respondJSON(w, http.StatusOK, queryResponse{Matched: false, Response: noMatchResponse})
		return
	}
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, queryResponse{
		Matched:           true,
		Response:          answer.Text,
		Confidence:        answer.Confidence,
		Source:            answer.Source,
		MatchedSimilarity: answer.MatchedSimilarity,
	})
}

func (s *Server) handleSubmitTraining(w http.ResponseWriter, r *http.Request) {
	var spec models.TrainingJobSpec
	// An empty body submits a job with defaults.
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	jobID := s.deps.Orchestrator.Submit(spec)
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(models.JobQueued),
	})
}

func (s *Server) handleTrainingStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.deps.Orchestrator.Status(jobID)
	if errors.Is(err, training.ErrJobNotFound) {
		s.respondError(w, http.StatusNotFound, "training job not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Store.ListModels(r.Context())
	if err != nil {
		s.logger.Error("list models failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.TrainedModelRecord{}
	}
	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")
	rec, err := s.deps.Store.GetModel(r.Context(), modelID)
	if errors.Is(err, storage.ErrModelNotFound) {
		s.respondError(w, http.StatusNotFound, "model not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeployModel(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")
	rec, err := s.deps.Store.DeployModel(r.Context(), modelID)
	if errors.Is(err, storage.ErrModelNotFound) {
		s.respondError(w, http.StatusNotFound, "model not found")
		return
	}
	if err != nil {
		s.logger.Error("deploy model failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("model deployed", zap.String("model_id", modelID))
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":           fmt.Sprintf("Model %s deployed successfully", modelID),
		"model_name":        rec.ModelName,
		"deployment_status": "active",
	})
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog search not enabled")
		return
	}
	q := models.CatalogQuery{
		Query: r.URL.Query().Get("q"),
		Type:  r.URL.Query().Get("type"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}
	if err := q.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.deps.Catalog.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("catalog search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordsPreview(w http.ResponseWriter, r *http.Request) {
	sourceName := r.URL.Query().Get("source")
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	var selected []source.Source
	for _, src := range s.deps.Sources {
		if sourceName == "" || src.Name() == sourceName {
			selected = append(selected, src)
		}
	}
	if len(selected) == 0 {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", sourceName))
		return
	}

	var raws []models.RawRecord
	for _, src := range selected {
		recs, err := src.Fetch(r.Context(), nil)
		if err != nil {
			s.logger.Warn("preview fetch failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		raws = append(raws, recs...)
	}
	records := normalize.NormalizeAll(raws)
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []models.NormalizedRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	modelRecords, err := s.deps.Store.ListModels(ctx)
	if err != nil {
		s.logger.Error("status: list models failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	storedRecords, err := s.deps.Store.DatasetCount(ctx)
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := s.deps.Index.Stats()
	resp := map[string]interface{}{
		"service":             serviceName,
		"index_tier":          stats.Tier,
		"index_size":          stats.TotalDocuments,
		"embedding_dimension": stats.EmbeddingDimension,
		"index_ready":         stats.IndexReady,
		"jobs":                s.deps.Orchestrator.Counts(),
		"models":              len(modelRecords),
		"stored_records":      storedRecords,
		"knowledge_base_size": s.deps.Generator.KnowledgeBaseSize(),
	}
	if s.deps.Catalog != nil {
		if count, err := s.deps.Catalog.DocCount(); err == nil {
			resp["catalog_documents"] = count
		}
	}
	if s.deps.Config != nil {
		diskBytes, err := storage.DiskUsageBytes(
			s.deps.Config.Storage.DatabasePath,
			s.deps.Config.Storage.CatalogIndexPath,
			s.deps.Config.Storage.IndexDir,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"version":   s.deps.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
