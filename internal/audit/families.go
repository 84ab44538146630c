package audit

import (
	"encoding/json"

	"github.com/tduong/medbill/internal/domain"
)

// familyCodec pairs the request builder and response parser for one
// provider family. Keeping both behind one value means the two halves of a
// family's wire contract cannot drift independently.
type familyCodec interface {
	// BuildRequest produces the JSON-serializable request body the
	// family's inference API expects for the given model and prompt.
	BuildRequest(d ModelDescriptor, prompt string) (any, error)

	// ParseResponse extracts the generated analysis text from the
	// family's response payload.
	ParseResponse(d ModelDescriptor, raw []byte) (string, error)
}

var familyCodecs = map[Family]familyCodec{
	FamilyAnthropic: anthropicCodec{},
	FamilyLlama:     llamaCodec{},
	FamilyMistral:   mistralCodec{},
}

// codecFor resolves the codec for a descriptor's family. An unrecognized
// family (including FamilyGeneric) is a registry bug and fails with a
// configuration error rather than producing a guessed body.
func codecFor(d ModelDescriptor) (familyCodec, error) {
	if c, ok := familyCodecs[d.Family]; ok {
		return c, nil
	}
	return nil, domain.ErrConfiguration("no request/response codec for provider family %q (model %q)", d.Family, d.ID)
}

// BuildRequestBody marshals the provider-specific request body for a model
// and prompt.
func BuildRequestBody(d ModelDescriptor, prompt string) ([]byte, error) {
	codec, err := codecFor(d)
	if err != nil {
		return nil, err
	}
	body, err := codec.BuildRequest(d, prompt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(body)
}

// ParseResponseBody extracts the analysis text from a raw provider
// response.
func ParseResponseBody(d ModelDescriptor, raw []byte) (string, error) {
	codec, err := codecFor(d)
	if err != nil {
		return "", err
	}
	return codec.ParseResponse(d, raw)
}

// anthropic family: Bedrock messages API.

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicCodec struct{}

func (anthropicCodec) BuildRequest(d ModelDescriptor, prompt string) (any, error) {
	return anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        d.MaxTokens,
		Temperature:      d.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}, nil
}

func (anthropicCodec) ParseResponse(d ModelDescriptor, raw []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", domain.ErrResponseFormat("model %q: invalid JSON response", d.ID).WithCause(err)
	}
	if len(resp.Content) == 0 {
		return "", domain.ErrResponseFormat("model %q: response missing content blocks", d.ID)
	}
	return resp.Content[0].Text, nil
}

// llama family: flat prompt with max_gen_len.

type llamaRequest struct {
	Prompt      string  `json:"prompt"`
	MaxGenLen   int     `json:"max_gen_len"`
	Temperature float64 `json:"temperature"`
}

type llamaResponse struct {
	Generation *string `json:"generation"`
}

type llamaCodec struct{}

func (llamaCodec) BuildRequest(d ModelDescriptor, prompt string) (any, error) {
	return llamaRequest{
		Prompt:      prompt,
		MaxGenLen:   d.MaxTokens,
		Temperature: d.Temperature,
	}, nil
}

func (llamaCodec) ParseResponse(d ModelDescriptor, raw []byte) (string, error) {
	var resp llamaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", domain.ErrResponseFormat("model %q: invalid JSON response", d.ID).WithCause(err)
	}
	if resp.Generation == nil {
		return "", domain.ErrResponseFormat("model %q: response missing generation field", d.ID)
	}
	return *resp.Generation, nil
}

// mistral family: flat prompt with nucleus/top-k sampling parameters.

type mistralRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type mistralResponse struct {
	Outputs []struct {
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"outputs"`
}

type mistralCodec struct{}

func (mistralCodec) BuildRequest(d ModelDescriptor, prompt string) (any, error) {
	return mistralRequest{
		Prompt:      prompt,
		MaxTokens:   d.MaxTokens,
		Temperature: d.Temperature,
		TopP:        0.9,
		TopK:        50,
	}, nil
}

func (mistralCodec) ParseResponse(d ModelDescriptor, raw []byte) (string, error) {
	var resp mistralResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", domain.ErrResponseFormat("model %q: invalid JSON response", d.ID).WithCause(err)
	}
	if len(resp.Outputs) == 0 {
		return "", domain.ErrResponseFormat("model %q: response missing outputs", d.ID)
	}
	return resp.Outputs[0].Text, nil
}
