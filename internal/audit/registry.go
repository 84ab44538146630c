package audit

import (
	"fmt"
	"sort"

	"github.com/tduong/medbill/internal/domain"
)

// Family groups inference backends that share a request/response payload
// shape. Request building and response parsing branch on it and nothing
// else.
type Family string

const (
	FamilyAnthropic Family = "anthropic"
	FamilyLlama     Family = "llama"
	FamilyMistral   Family = "mistral"
	FamilyGeneric   Family = "generic"
)

// ModelDescriptor describes one entry in the model catalog.
type ModelDescriptor struct {
	ID          string  `json:"model_id"`
	DisplayName string  `json:"display_name"`
	Family      Family  `json:"provider_family"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Default     bool    `json:"is_default"`
}

// Registry is the immutable catalog of supported models. It is built once
// at startup and shared read-only across requests; tests construct their
// own instances rather than touching process globals.
type Registry struct {
	models     []ModelDescriptor
	byID       map[string]ModelDescriptor
	defaultID  string
	fallbackID string
}

// NewRegistry builds a registry from the given descriptors. Exactly one
// descriptor must be the default; fallbackID must name a catalog entry and
// is the model substituted when a caller requests an unknown id.
func NewRegistry(models []ModelDescriptor, fallbackID string) (*Registry, error) {
	if len(models) == 0 {
		return nil, domain.ErrConfiguration("model registry cannot be empty")
	}

	byID := make(map[string]ModelDescriptor, len(models))
	defaultID := ""
	for _, m := range models {
		if m.ID == "" {
			return nil, domain.ErrConfiguration("model descriptor with empty id")
		}
		if _, dup := byID[m.ID]; dup {
			return nil, domain.ErrConfiguration("duplicate model id %q", m.ID)
		}
		byID[m.ID] = m
		if m.Default {
			if defaultID != "" {
				return nil, domain.ErrConfiguration("multiple default models: %q and %q", defaultID, m.ID)
			}
			defaultID = m.ID
		}
	}
	if defaultID == "" {
		return nil, domain.ErrConfiguration("no default model in registry")
	}
	if _, ok := byID[fallbackID]; !ok {
		return nil, domain.ErrConfiguration("fallback model %q not in registry", fallbackID)
	}

	out := make([]ModelDescriptor, len(models))
	copy(out, models)

	return &Registry{
		models:     out,
		byID:       byID,
		defaultID:  defaultID,
		fallbackID: fallbackID,
	}, nil
}

// MustNewRegistry is NewRegistry for static catalogs; it panics on error.
func MustNewRegistry(models []ModelDescriptor, fallbackID string) *Registry {
	r, err := NewRegistry(models, fallbackID)
	if err != nil {
		panic(fmt.Sprintf("audit: invalid model registry: %v", err))
	}
	return r
}

// Resolve maps a requested model id to a catalog entry. An empty id yields
// the default model. An unknown id yields the fixed fallback model, with
// substituted set so callers can report which model actually ran.
func (r *Registry) Resolve(requested string) (desc ModelDescriptor, substituted bool) {
	if requested == "" {
		return r.byID[r.defaultID], false
	}
	if m, ok := r.byID[requested]; ok {
		return m, false
	}
	return r.byID[r.fallbackID], true
}

// WithDefault returns a copy of the registry with id as the default model.
// The id must name a catalog entry; the receiver is left unchanged.
func (r *Registry) WithDefault(id string) (*Registry, error) {
	if _, ok := r.byID[id]; !ok {
		return nil, domain.ErrConfiguration("default model %q not in registry", id)
	}
	models := make([]ModelDescriptor, len(r.models))
	copy(models, r.models)
	for i := range models {
		models[i].Default = models[i].ID == id
	}
	return NewRegistry(models, r.fallbackID)
}

// Default returns the default model descriptor.
func (r *Registry) Default() ModelDescriptor {
	return r.byID[r.defaultID]
}

// Fallback returns the descriptor substituted for unknown model ids.
func (r *Registry) Fallback() ModelDescriptor {
	return r.byID[r.fallbackID]
}

// List returns all descriptors ordered by id. The slice is a copy.
func (r *Registry) List() []ModelDescriptor {
	out := make([]ModelDescriptor, len(r.models))
	copy(out, r.models)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultCatalog returns the built-in registry of Bedrock-hosted models the
// audit service supports. Claude 3 Sonnet is the default; Claude 3 Haiku,
// the cheapest entry, doubles as the unknown-model fallback.
func DefaultCatalog() *Registry {
	return MustNewRegistry([]ModelDescriptor{
		{
			ID:          "anthropic.claude-3-sonnet-20240229-v1:0",
			DisplayName: "Claude 3 Sonnet",
			Family:      FamilyAnthropic,
			MaxTokens:   3000,
			Temperature: 0.7,
			Default:     true,
		},
		{
			ID:          "anthropic.claude-3-haiku-20240307-v1:0",
			DisplayName: "Claude 3 Haiku",
			Family:      FamilyAnthropic,
			MaxTokens:   3000,
			Temperature: 0.7,
		},
		{
			ID:          "meta.llama3-8b-instruct-v1:0",
			DisplayName: "Llama 3 8B Instruct",
			Family:      FamilyLlama,
			MaxTokens:   2048,
			Temperature: 0.5,
		},
		{
			ID:          "meta.llama3-70b-instruct-v1:0",
			DisplayName: "Llama 3 70B Instruct",
			Family:      FamilyLlama,
			MaxTokens:   2048,
			Temperature: 0.5,
		},
		{
			ID:          "mistral.mistral-7b-instruct-v0:2",
			DisplayName: "Mistral 7B Instruct",
			Family:      FamilyMistral,
			MaxTokens:   3000,
			Temperature: 0.7,
		},
		{
			ID:          "mistral.mixtral-8x7b-instruct-v0:1",
			DisplayName: "Mixtral 8x7B Instruct",
			Family:      FamilyMistral,
			MaxTokens:   3000,
			Temperature: 0.7,
		},
	}, "anthropic.claude-3-haiku-20240307-v1:0")
}
