// Package gateway talks to the external AI providers. It owns every
// per-provider protocol difference; the scheduler only hands it ordered
// credential and model lists and treats any failure as
// retry-next-combination until the gateway gives up.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/stockmeta/api/internal/model"
)

// ErrExhausted wraps the last underlying failure once every model and key
// combination has been attempted.
var ErrExhausted = errors.New("all models and keys failed to generate metadata")

// Payload is the input for one generation. ImageJPEG is nil in filename
// mode; video items carry their extracted still frame.
type Payload struct {
	FileName  string
	ImageJPEG []byte
}

// Gateway generates metadata with ordered credential and model failover and
// verifies credentials.
type Gateway interface {
	// Generate attempts modelIDs in order and, for each model, keys in
	// order, returning on first success. After exhausting every
	// combination it returns the last underlying error.
	Generate(ctx context.Context, provider model.Provider, keys []string, payload Payload, modelIDs []string, cfg model.CustomizationConfig, kind model.MediaKind) (model.Metadata, error)

	// VerifyKey checks whether a credential is accepted by the provider.
	VerifyKey(ctx context.Context, provider model.Provider, key string) bool
}

// Endpoints holds provider base URLs, overridable for tests.
type Endpoints struct {
	Groq   string
	Gemini string
	OpenAI string
}

// DefaultEndpoints returns the production provider base URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Groq:   "https://api.groq.com/openai/v1",
		Gemini: "https://generativelanguage.googleapis.com/v1beta",
		OpenAI: "https://api.openai.com/v1",
	}
}

// HTTPGateway is the production Gateway implementation.
type HTTPGateway struct {
	httpClient *http.Client
	endpoints  Endpoints
}

// NewHTTPGateway creates a gateway with the given provider endpoints.
func NewHTTPGateway(endpoints Endpoints) *HTTPGateway {
	return &HTTPGateway{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		endpoints: endpoints,
	}
}

// Generate implements the model x key failover loop.
func (g *HTTPGateway) Generate(ctx context.Context, provider model.Provider, keys []string, payload Payload, modelIDs []string, cfg model.CustomizationConfig, kind model.MediaKind) (model.Metadata, error) {
	if len(keys) == 0 {
		return model.Metadata{}, fmt.Errorf("no API keys configured for %s", provider)
	}
	if len(modelIDs) == 0 {
		return model.Metadata{}, errors.New("no models available for generation")
	}

	system, user := buildPrompts(cfg, kind, payload.FileName)

	var imageJPEG []byte
	if cfg.GenerationSource != model.SourceFilename {
		imageJPEG = payload.ImageJPEG
	}

	var lastErr error
	for _, modelID := range modelIDs {
		for i, key := range keys {
			raw, err := g.invoke(ctx, provider, key, modelID, system, user, imageJPEG)
			if err != nil {
				log.Printf("generation failed: provider=%s model=%s keyIndex=%d: %v", provider, modelID, i, err)
				lastErr = err
				if ctx.Err() != nil {
					return model.Metadata{}, ctx.Err()
				}
				continue
			}
			md, err := parseMetadata(raw)
			if err != nil {
				log.Printf("bad metadata payload: provider=%s model=%s keyIndex=%d: %v", provider, modelID, i, err)
				lastErr = err
				continue
			}
			return postProcess(md, cfg), nil
		}
	}

	if lastErr == nil {
		lastErr = ErrExhausted
	}
	return model.Metadata{}, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// invoke dispatches to the provider-specific wire protocol.
func (g *HTTPGateway) invoke(ctx context.Context, provider model.Provider, key, modelID, system, user string, imageJPEG []byte) (string, error) {
	switch provider {
	case model.ProviderGroq:
		return g.chatCompletion(ctx, g.endpoints.Groq, key, modelID, system, user, imageJPEG)
	case model.ProviderOpenAI:
		return g.chatCompletion(ctx, g.endpoints.OpenAI, key, modelID, system, user, imageJPEG)
	case model.ProviderGemini:
		return g.generateContent(ctx, key, modelID, system, user, imageJPEG)
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
}

// VerifyKey checks a credential against the provider's model listing
// endpoint, the cheapest authenticated call each provider exposes.
func (g *HTTPGateway) VerifyKey(ctx context.Context, provider model.Provider, key string) bool {
	if key == "" {
		return false
	}
	var req *http.Request
	var err error
	switch provider {
	case model.ProviderGroq:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, g.endpoints.Groq+"/models", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	case model.ProviderOpenAI:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, g.endpoints.OpenAI+"/models", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	case model.ProviderGemini:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, g.endpoints.Gemini+"/models?key="+key, nil)
	default:
		return false
	}
	if err != nil {
		return false
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
