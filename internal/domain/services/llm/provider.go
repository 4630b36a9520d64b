package llm

import "context"

// CodeGenerator is the external text-completion capability.
// It needs no knowledge of the model or provider behind it: text in, text out.
type CodeGenerator interface {
	// Complete returns the full completion text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// CompleteStreaming returns a finite, non-restartable sequence of chunks.
	// The channel is closed at end of stream; a chunk with Err set is the last
	// one delivered on failure.
	CompleteStreaming(ctx context.Context, req *CompletionRequest) (<-chan Chunk, error)

	// Name identifies the generator for logs (e.g. "anthropic", "lorem")
	Name() string
}

// CompletionRequest carries the system role, the user-role payload, and optional
// prior code used as context for revisions.
type CompletionRequest struct {
	SystemRole  string
	UserPayload string
	PriorCode   string
}

// Chunk is one piece of a streamed completion. Exactly one of Text or Err is meaningful.
type Chunk struct {
	Text string
	Err  error
}
