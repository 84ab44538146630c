package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/audit"
	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/server"
	"github.com/tduong/medbill/internal/storage"
)

// Auditor runs claim audits and prompt generations. Satisfied by
// *audit.Dispatcher.
type Auditor interface {
	Run(ctx context.Context, req audit.Request) (*audit.Result, error)
	Generate(ctx context.Context, prompt, modelID string, ep audit.Endpoint) (string, audit.ModelDescriptor, error)
}

type Audit struct {
	auditor  Auditor
	claims   storage.ClaimStore
	registry *audit.Registry
	endpoint audit.Endpoint
}

func NewAudit(auditor Auditor, claims storage.ClaimStore, registry *audit.Registry, endpoint audit.Endpoint) *Audit {
	return &Audit{
		auditor:  auditor,
		claims:   claims,
		registry: registry,
		endpoint: endpoint,
	}
}

func (h *Audit) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/claims/{claimID}", h.runClaimAudit)
	r.Get("/models", h.listModels)
	return r
}

type auditRequestBody struct {
	Model string `json:"model"`
}

// runClaimAudit runs the dispatcher against one claim and, on success,
// persists the fraud score onto the claim record.
func (h *Audit) runClaimAudit(w http.ResponseWriter, r *http.Request) {
	claimID, err := pathID(r, "claimID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The model override body is optional; an empty body selects the
	// default model.
	var body auditRequestBody
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, domain.ErrValidation("reading request body").WithCause(err))
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, r, domain.ErrValidation("invalid request body").WithCause(err))
			return
		}
	}

	result, err := h.auditor.Run(r.Context(), audit.Request{
		ClaimID:  claimID,
		ModelID:  body.Model,
		Endpoint: h.endpoint,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	server.AddLogField(r.Context(), "model_used", result.ModelUsed)
	server.AddLogField(r.Context(), "fraud_score", strconv.Itoa(result.FraudScore))

	if err := h.claims.SetClaimFraudScore(r.Context(), claimID, float64(result.FraudScore)); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type modelsResponse struct {
	Models       []audit.ModelDescriptor `json:"models"`
	DefaultModel string                  `json:"default_model"`
	Count        int                     `json:"count"`
}

func (h *Audit) listModels(w http.ResponseWriter, r *http.Request) {
	models := h.registry.List()
	writeJSON(w, http.StatusOK, modelsResponse{
		Models:       models,
		DefaultModel: h.registry.Default().ID,
		Count:        len(models),
	})
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type generateResponse struct {
	Response  string `json:"response"`
	ModelUsed string `json:"model_used"`
}

// HandleGenerate forwards a raw prompt to the inference endpoint using the
// resolved model.
func (h *Audit) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	text, desc, err := h.auditor.Generate(r.Context(), req.Prompt, req.Model, h.endpoint)
	if err != nil {
		writeError(w, r, err)
		return
	}

	server.AddLogField(r.Context(), "model_used", desc.ID)
	writeJSON(w, http.StatusOK, generateResponse{Response: text, ModelUsed: desc.ID})
}
