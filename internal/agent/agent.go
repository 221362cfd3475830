// Package agent provides a tool-using agent with bounded memory.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hoanghai1803/aitracker/internal/llm"
	"github.com/hoanghai1803/aitracker/internal/metrics"
)

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned when no tool has the requested name.
	ErrUnknownTool = errors.New("unknown tool")
)

// State is the advisory activity state of an Agent. It is reported for
// observability only and never gates an operation.
type State int32

const (
	StateIdle State = iota
	StateThinking
	StateActing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateThinking:
		return "thinking"
	case StateActing:
		return "acting"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Agent owns a memory, a set of named tools and an LLM client.
type Agent struct {
	name   string
	role   string
	memory *Memory
	client llm.Client

	mu    sync.RWMutex
	tools map[string]Tool
	order []string

	state atomic.Int32
}

// New creates an Agent. A nil memory gets a default-sized one; client may be
// nil, in which case GenerateText fails with llm.ErrNotConfigured.
func New(name, role string, client llm.Client, memory *Memory) *Agent {
	if memory == nil {
		memory = NewMemory(DefaultMaxShortTerm)
	}
	return &Agent{
		name:   name,
		role:   role,
		memory: memory,
		client: client,
		tools:  make(map[string]Tool),
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Role returns the agent role.
func (a *Agent) Role() string { return a.role }

// Memory returns the agent's memory.
func (a *Agent) Memory() *Memory { return a.memory }

// HasLLM reports whether an LLM client is attached.
func (a *Agent) HasLLM() bool { return a.client != nil }

// State returns the current state.
func (a *Agent) State() State { return State(a.state.Load()) }

// SetState replaces the current state.
func (a *Agent) SetState(s State) { a.state.Store(int32(s)) }

// AddTool validates and registers a tool.
func (a *Agent) AddTool(t Tool) error {
	if err := validateTool(t); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tools[t.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
	}
	a.tools[t.Name()] = t
	a.order = append(a.order, t.Name())
	return nil
}

// GetTool looks up a registered tool by name.
func (a *Agent) GetTool(name string) (Tool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Tools returns the schemas of all registered tools in registration order.
func (a *Agent) Tools() []Schema {
	a.mu.RLock()
	defer a.mu.RUnlock()
	schemas := make([]Schema, 0, len(a.order))
	for _, name := range a.order {
		schemas = append(schemas, SchemaOf(a.tools[name]))
	}
	return schemas
}

// Observe records an observation in memory. The source is stored under the
// "source" metadata key unless the caller already set one.
func (a *Agent) Observe(source string, content any, metadata map[string]any) {
	md := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	if _, ok := md["source"]; !ok {
		md["source"] = source
	}
	a.memory.Add(content, md)
	slog.Debug("agent observation recorded", "agent", a.name, "source", source)
}

// Act executes the named tool and records the outcome in memory. Every
// failure, including a panicking tool, is reported in the returned result.
func (a *Agent) Act(ctx context.Context, action string, params map[string]any) (result ToolResult) {
	a.SetState(StateActing)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool panicked", "agent", a.name, "tool", action, "panic", r)
			result = Failed(fmt.Sprintf("Error executing action %s: panic: %v", action, r))
		}
		metrics.ObserveToolCall(action, result.Success)
		a.Observe("action_result", "Executed "+action, map[string]any{
			"action":     action,
			"parameters": params,
			"result":     result,
		})
		a.SetState(StateIdle)
	}()

	result, err := a.execute(ctx, action, params)
	if err != nil {
		slog.Warn("tool execution failed", "agent", a.name, "tool", action, "error", err)
		return Failed(fmt.Sprintf("Error executing action %s: %v", action, err))
	}
	return result
}

func (a *Agent) execute(ctx context.Context, action string, params map[string]any) (ToolResult, error) {
	t, err := a.GetTool(action)
	if err != nil {
		return ToolResult{}, err
	}
	bound, err := bindParams(t, params)
	if err != nil {
		return ToolResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ToolResult{}, err
	}
	return t.Execute(ctx, bound)
}

// GenerateText sends prompt, preceded by an optional system message, to the
// LLM and returns the reply text.
func (a *Agent) GenerateText(ctx context.Context, prompt, system string, opts llm.Options) (string, error) {
	if a.client == nil {
		return "", llm.ErrNotConfigured
	}

	messages := make([]llm.Message, 0, 2)
	if system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := a.client.Generate(ctx, messages, opts)
	if err != nil {
		slog.Error("text generation failed", "agent", a.name, "error", err)
		return "", fmt.Errorf("generating text: %w", err)
	}
	return resp.Content, nil
}
