package api

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
)

// CompletionRequest is one model invocation within an agent's tool loop.
type CompletionRequest struct {
	// System is the agent's persona prompt.
	System string
	// Messages is the conversation so far, including tool results.
	Messages []anthropic.MessageParam
	// Tools is the agent's allowed tool schemas; empty means no tools.
	Tools []anthropic.ToolUnionParam
	// MaxTokens caps the response length; 0 uses the default.
	MaxTokens int64
}

// ToolUse is one tool invocation requested by the model.
type ToolUse struct {
	// ID is the tool-use block ID, echoed back in the result block.
	ID string
	// Name is the requested skill name.
	Name string
	// Input is the raw JSON input the model supplied.
	Input json.RawMessage
}

// Completion is the distilled model response the executor consumes.
// Flattening the SDK's content-block union here keeps the tool loop
// independent of SDK response types, so tests can fake a Completer
// without constructing union values.
type Completion struct {
	// Text is the concatenated text blocks of the response.
	Text string
	// ToolUses lists the tool invocations requested, in block order.
	ToolUses []ToolUse
	// Done is true when the model ended its turn (no pending tool use).
	Done bool
	// TokensIn/TokensOut are the usage numbers for this call.
	TokensIn  int64
	TokensOut int64
}

// Completer is the minimal LLM contract the task executor depends on.
// *Client implements it against the Anthropic API.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
