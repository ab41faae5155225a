package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

// Generator produces candidate knowledge text for a prompt. It is consumed
// only by the offline harvester, never on the live routing path.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// --- Ollama provider ---

// OllamaGenerator uses a local Ollama instance for text generation.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewOllamaGenerator creates a generator backed by Ollama's generate API.
func NewOllamaGenerator(modelName string) *OllamaGenerator {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llama3.2"
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		model:   modelName,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(ollamaGenerateRequest{Model: g.model, Prompt: prompt})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, string(b))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return out.Response, nil
}

// --- Harvester ---

// Harvester turns generated text into candidate memory entries through the
// same reinforce-or-create pipeline used everywhere else.
type Harvester struct {
	gen     Generator
	storage Storage
	logger  *zap.Logger
}

// NewHarvester builds a harvester over the given generator and storage.
func NewHarvester(gen Generator, storage Storage, logger *zap.Logger) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{gen: gen, storage: storage, logger: logger}
}

const harvestPromptFormat = "List short, factual knowledge statements about %s, one per line, no numbering."

// Harvest generates candidate statements for each topic and stores them as
// generated entries. Returns how many candidates were stored or reinforced.
func (h *Harvester) Harvest(ctx context.Context, topics []string) (int, error) {
	stored := 0
	for _, topic := range topics {
		text, err := h.gen.Generate(ctx, fmt.Sprintf(harvestPromptFormat, topic))
		if err != nil {
			return stored, fmt.Errorf("harvest topic %q: %w", topic, err)
		}

		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(line, "-* \t"))
			if len(line) < 10 {
				continue
			}
			_, err := h.storage.ReinforceOrCreate(ctx, store.Candidate{
				Type:    model.TypeGenerated,
				Title:   topic,
				Content: line,
				Metadata: map[string]string{
					"trainingType": "harvest",
					"topic":        topic,
				},
				Priority: store.PriorityInteraction,
			})
			if err != nil {
				return stored, fmt.Errorf("store harvested candidate: %w", err)
			}
			stored++
		}
		h.logger.Info("harvested topic", zap.String("topic", topic))
	}
	return stored, nil
}
