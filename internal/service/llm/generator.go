package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"

	domainllm "wbuilder/internal/domain/services/llm"
)

const blockTypeText = "text"

// Backend is the slice of llmprovider.Provider the generator needs
type Backend interface {
	GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error)
	StreamResponse(ctx context.Context, req *llmprovider.GenerateRequest) (<-chan llmprovider.StreamEvent, error)
}

// GeneratorConfig configures a Generator
type GeneratorConfig struct {
	Name      string
	Model     string
	MaxTokens int
	// ContextFormat merges prior code into the user payload. Required when
	// requests carry PriorCode.
	ContextFormat func(priorCode, payload string) string
}

// Generator implements CodeGenerator over a meridian-llm-go provider.
// Each request is a single user turn with the system role in the request params.
type Generator struct {
	backend Backend
	cfg     GeneratorConfig
	logger  *slog.Logger
}

// NewGenerator creates a code generator for a provider
func NewGenerator(backend Backend, cfg GeneratorConfig, logger *slog.Logger) *Generator {
	return &Generator{backend: backend, cfg: cfg, logger: logger}
}

// NewGeneratorFromProvider names the generator after the provider
func NewGeneratorFromProvider(provider llmprovider.Provider, cfg GeneratorConfig, logger *slog.Logger) *Generator {
	if cfg.Name == "" {
		cfg.Name = provider.Name().String()
	}
	return NewGenerator(provider, cfg, logger)
}

var _ domainllm.CodeGenerator = (*Generator)(nil)

// Name identifies the generator for logs
func (g *Generator) Name() string {
	return g.cfg.Name
}

// Complete runs one buffered completion and joins its text blocks
func (g *Generator) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	resp, err := g.backend.GenerateResponse(ctx, g.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", g.cfg.Name, err)
	}

	var sb strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		sb.WriteString(*block.TextContent)
	}

	g.logger.Debug("completion finished",
		"generator", g.cfg.Name,
		"model", g.cfg.Model,
		"chars", sb.Len(),
	)
	return sb.String(), nil
}

// CompleteStreaming forwards text deltas as chunks. The returned channel is
// closed when the provider stream ends or ctx is done; provider errors are
// delivered as a final chunk.
func (g *Generator) CompleteStreaming(ctx context.Context, req *domainllm.CompletionRequest) (<-chan domainllm.Chunk, error) {
	events, err := g.backend.StreamResponse(ctx, g.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", g.cfg.Name, err)
	}

	out := make(chan domainllm.Chunk, 16)
	go func() {
		defer close(out)
		for event := range events {
			var chunk domainllm.Chunk
			switch {
			case event.Error != nil:
				chunk.Err = fmt.Errorf("%s stream: %w", g.cfg.Name, event.Error)
			case event.Delta != nil && event.Delta.TextDelta != nil && *event.Delta.TextDelta != "":
				chunk.Text = *event.Delta.TextDelta
			default:
				continue
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				go drain(events)
				return
			}
			if chunk.Err != nil {
				go drain(events)
				return
			}
		}
	}()

	return out, nil
}

// drain consumes events until the provider closes the channel so its
// unconditional sends never block after we stop forwarding.
func drain(events <-chan llmprovider.StreamEvent) {
	for range events {
	}
}

func (g *Generator) buildRequest(req *domainllm.CompletionRequest) *llmprovider.GenerateRequest {
	payload := req.UserPayload
	if req.PriorCode != "" && g.cfg.ContextFormat != nil {
		payload = g.cfg.ContextFormat(req.PriorCode, req.UserPayload)
	}

	system := req.SystemRole
	maxTokens := g.cfg.MaxTokens

	return &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{
			{
				Role: "user",
				Blocks: []*llmprovider.Block{
					{BlockType: blockTypeText, Sequence: 0, TextContent: &payload},
				},
			},
		},
		Model: g.cfg.Model,
		Params: &llmprovider.RequestParams{
			MaxTokens: &maxTokens,
			System:    &system,
		},
	}
}
