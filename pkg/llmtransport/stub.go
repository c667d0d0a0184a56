package llmtransport

import (
	"context"
	"sync"
	"time"
)

// StubTransport is a canned-response Transport for tests (spec §9: "tests
// supply a stub that returns canned JSON"), grounded on tarsy's
// pkg/queue/executor_stub.go.
type StubTransport struct {
	mu Responses
}

// Responses maps agentName -> either a canned response or an error to
// return instead. It is safe for concurrent use.
type Responses struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	calls     []string
}

// NewStubTransport creates a StubTransport with no canned responses; Chat
// returns an empty string for any agent that wasn't configured.
func NewStubTransport() *StubTransport {
	return &StubTransport{mu: Responses{
		responses: make(map[string]string),
		errors:    make(map[string]error),
	}}
}

// SetResponse configures the text Chat returns for the given agent name.
func (s *StubTransport) SetResponse(agentName, text string) {
	s.mu.mu.Lock()
	defer s.mu.mu.Unlock()
	s.mu.responses[agentName] = text
}

// SetError configures Chat to fail for the given agent name.
func (s *StubTransport) SetError(agentName string, err error) {
	s.mu.mu.Lock()
	defer s.mu.mu.Unlock()
	s.mu.errors[agentName] = err
}

// Calls returns the agent names Chat was invoked with, in call order.
func (s *StubTransport) Calls() []string {
	s.mu.mu.Lock()
	defer s.mu.mu.Unlock()
	out := make([]string, len(s.mu.calls))
	copy(out, s.mu.calls)
	return out
}

// Chat implements Transport.
func (s *StubTransport) Chat(_ context.Context, agentName, _ string, _ time.Duration) (string, error) {
	s.mu.mu.Lock()
	defer s.mu.mu.Unlock()
	s.mu.calls = append(s.mu.calls, agentName)
	if err, ok := s.mu.errors[agentName]; ok {
		return "", err
	}
	return s.mu.responses[agentName], nil
}
