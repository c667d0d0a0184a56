// Package llmtransport implements the multi-agent analyzer's (C7) opaque
// chat(agentName, prompt, timeout) -> text capability as a gRPC client to
// an LLM sidecar (spec §1 "the LLM transport itself"; §9 "Global state":
// "The analyzer's LLM transport is an interface accepted by constructor
// injection"). It is grounded on tarsy's pkg/llm/client.go, simplified
// from a streaming thinking-RPC to a single unary call.
package llmtransport

import (
	"context"
	"fmt"
	"time"

	pb "github.com/cloudlab/detonator/proto"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Transport is the capability the multi-agent analyzer (C7) depends on.
// Tests supply a stub implementation that returns canned JSON (spec §9).
type Transport interface {
	Chat(ctx context.Context, agentName, prompt string, timeout time.Duration) (string, error)
}

// Client wraps the gRPC connection to the LLM sidecar. A single model
// identifier is enforced for every call regardless of caller overrides
// (spec §4.7).
type Client struct {
	conn   *grpc.ClientConn
	client pb.LLMServiceClient
	model  string
}

// Model is the single LLM identifier every Client enforces (spec §4.7:
// "A single model identifier is enforced for every call regardless of
// caller overrides").
const Model = "sandbox-analyst-v1"

// NewClient dials the LLM sidecar at addr. The connection is lazy
// (grpc.NewClient does not block on the initial handshake), matching
// tarsy's pkg/llm/client.go.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to LLM sidecar: %w", err)
	}
	return &Client{
		conn:   conn,
		client: pb.NewLLMServiceClient(conn),
		model:  Model,
	}, nil
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Chat dispatches a single (agentName, prompt) round trip, bounding it by
// timeout as both a gRPC call deadline and the request's own
// timeout_seconds field (spec §5: "Every LLM call has a timeout (120s by
// default)").
func (c *Client) Chat(ctx context.Context, agentName, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.Chat(ctx, &pb.ChatRequest{
		AgentName:      agentName,
		Prompt:         prompt,
		Model:          c.model,
		TimeoutSeconds: int32(timeout / time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("chat rpc to %s: %w", agentName, err)
	}
	return resp.GetText(), nil
}
