// Package agent implements the tool-calling execution loop: composing prompt
// context from memory sources, letting the model call tools within a bounded
// iteration budget, and persisting the finished turn.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fathom-run/fathom/core"
	"github.com/fathom-run/fathom/internal/util"
	"github.com/fathom-run/fathom/logging"
	"github.com/fathom-run/fathom/memory"
	"github.com/fathom-run/fathom/model"
	"github.com/fathom-run/fathom/session"
	"github.com/fathom-run/fathom/tool"
)

const (
	// DefaultMaxIterations bounds the number of model calls per run.
	DefaultMaxIterations = 2

	// DefaultToolTimeout bounds a single tool invocation.
	DefaultToolTimeout = 30 * time.Second
)

// ToolStep records a single tool invocation made during a run.
type ToolStep struct {
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of one agent run.
type Result struct {
	// Output is the agent's final text. When the iteration budget ran out
	// before the model stopped calling tools, this is the last text produced.
	Output string `json:"output"`

	// Steps lists the tool calls executed, in order.
	Steps []ToolStep `json:"steps,omitempty"`

	// Iterations is the number of model calls consumed.
	Iterations int `json:"iterations"`
}

// Options configures an Agent. Use functional options with New.
type Options struct {
	SystemPrompt  string
	Tools         []tool.Tool
	Sources       []memory.Source
	MaxIterations int
	ToolTimeout   time.Duration
	SessionID     string
	SessionStore  session.Store
	Logger        logging.Logger
}

// WithSystemPrompt sets the system prompt. The prompt may use template
// variables filled from memory source keys.
func WithSystemPrompt(prompt string) func(o *Options) {
	return func(o *Options) { o.SystemPrompt = prompt }
}

// WithTools registers tools in declaration order.
func WithTools(tools ...tool.Tool) func(o *Options) {
	return func(o *Options) { o.Tools = append(o.Tools, tools...) }
}

// WithSources adds memory sources beyond the built-in conversation buffer.
func WithSources(sources ...memory.Source) func(o *Options) {
	return func(o *Options) { o.Sources = append(o.Sources, sources...) }
}

// WithMaxIterations caps model calls per run.
func WithMaxIterations(n int) func(o *Options) {
	return func(o *Options) { o.MaxIterations = n }
}

// WithToolTimeout bounds each tool invocation.
func WithToolTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.ToolTimeout = d }
}

// WithSession enables conversation persistence keyed by sessionID.
func WithSession(store session.Store, sessionID string) func(o *Options) {
	return func(o *Options) {
		o.SessionStore = store
		o.SessionID = sessionID
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Agent runs a bounded tool-calling loop against a model.
type Agent struct {
	name          string
	llm           model.Model
	systemPrompt  string
	tools         []tool.Tool
	toolIndex     map[string]tool.Tool
	buffer        *memory.BufferSource
	mem           *memory.Composed
	maxIterations int
	toolTimeout   time.Duration
	sessionID     string
	store         session.Store
	logger        logging.Logger
}

// New creates an agent. A conversation buffer source is always present;
// additional sources (long-term retrieval) come from WithSources.
func New(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		SystemPrompt:  fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		MaxIterations: DefaultMaxIterations,
		ToolTimeout:   DefaultToolTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	buffer := memory.NewBufferSource()
	sources := append([]memory.Source{buffer}, opts.Sources...)
	mem, err := memory.Compose(sources, memory.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	toolIndex := make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		if _, exists := toolIndex[t.Name()]; exists {
			return nil, fmt.Errorf("agent: duplicate tool %q", t.Name())
		}
		toolIndex[t.Name()] = t
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	return &Agent{
		name:          name,
		llm:           llm,
		systemPrompt:  opts.SystemPrompt,
		tools:         opts.Tools,
		toolIndex:     toolIndex,
		buffer:        buffer,
		mem:           mem,
		maxIterations: opts.MaxIterations,
		toolTimeout:   opts.ToolTimeout,
		sessionID:     opts.SessionID,
		store:         opts.SessionStore,
		logger:        logger,
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Run executes one turn: restore session, compose context, loop model and
// tool calls until the model stops or the iteration budget runs out, then
// save the turn.
func (a *Agent) Run(ctx context.Context, query string) (*Result, error) {
	runID := core.NewID()
	a.logger.Info("agent.run.start", "agent", a.name, "run_id", runID)

	a.restoreSession(ctx)

	vars := a.mem.Load(ctx, query)

	instructions, err := a.renderInstructions(vars)
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}

	contents := historyContents(vars)
	contents = append(contents, core.NewTextContent(core.RoleUser, query))

	result, err := a.loop(ctx, runID, instructions, contents)
	if err != nil {
		return nil, err
	}

	if saveErr := a.mem.Save(ctx, query, result.Output); saveErr != nil {
		a.logger.Warn("agent.memory.save_failed", "run_id", runID, "error", saveErr.Error())
	}
	a.persistSession(ctx, runID)

	a.logger.Info("agent.run.done", "agent", a.name, "run_id", runID,
		"iterations", result.Iterations, "steps", len(result.Steps))
	return result, nil
}

// loop is the bounded generate/execute cycle. Each model call costs one
// iteration. Trailing tool calls on the final iteration are not executed.
func (a *Agent) loop(
	ctx context.Context,
	runID, instructions string,
	contents []core.Content,
) (*Result, error) {
	result := &Result{}
	lastText := ""

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		result.Iterations = iteration

		resp, err := a.llm.Generate(ctx, model.Request{
			Instructions: instructions,
			Contents:     contents,
			Tools:        a.toolDefinitions(),
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		if text := resp.Content.Text(); text != "" {
			lastText = text
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			result.Output = lastText
			return result, nil
		}

		if iteration == a.maxIterations {
			a.logger.Warn("agent.run.budget_exhausted", "run_id", runID,
				"pending_calls", len(calls))
			break
		}

		contents = append(contents, resp.Content)
		contents = append(contents, a.executeCalls(ctx, runID, calls, result))
	}

	result.Output = lastText
	return result, nil
}

// executeCalls runs each requested tool sequentially and returns the tool
// response content to feed back to the model. Tool failures become error
// responses so the model can recover or report them.
func (a *Agent) executeCalls(
	ctx context.Context,
	runID string,
	calls []core.FunctionCall,
	result *Result,
) core.Content {
	parts := make([]core.Part, 0, len(calls))

	for _, call := range calls {
		step := ToolStep{Tool: call.Name, Arguments: call.Arguments}
		response := core.FunctionResponse{ID: call.ID, Name: call.Name}

		output, err := a.executeCall(ctx, call)
		if err != nil {
			a.logger.Warn("agent.tool.failed", "run_id", runID, "tool", call.Name,
				"error", err.Error())
			step.Error = err.Error()
			response.Error = err.Error()
			response.Response = "Error: " + err.Error()
		} else {
			text := memory.NormalizeOutput(output)
			step.Response = text
			response.Response = text
		}

		result.Steps = append(result.Steps, step)
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: response})
	}

	return core.Content{Role: "tool", Parts: parts}
}

func (a *Agent) executeCall(ctx context.Context, call core.FunctionCall) (any, error) {
	t, ok := a.toolIndex[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("invalid tool arguments: %w", err)
		}
	}

	callCtx := ctx
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}

	return t.Call(callCtx, args)
}

// renderInstructions expands the system prompt template with memory variables
// and appends retrieved long-term context when present.
func (a *Agent) renderInstructions(vars map[string]any) (string, error) {
	templateVars := make(map[string]any, len(vars))
	for k, v := range vars {
		if k == memory.ChatHistoryKey {
			continue
		}
		templateVars[k] = v
	}

	instructions, err := util.RenderTemplate(a.systemPrompt, templateVars)
	if err != nil {
		return "", err
	}

	if ctxText, ok := vars[memory.LongTermContextKey].(string); ok && ctxText != "" {
		instructions += "\n\nRelevant past context:\n" + ctxText
	}
	return instructions, nil
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(a.tools))
	for i, t := range a.tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// restoreSession seeds the conversation buffer from the session store. A
// missing session starts fresh; a store failure degrades to a memoryless run.
func (a *Agent) restoreSession(ctx context.Context) {
	if a.store == nil || a.sessionID == "" {
		return
	}

	data, err := a.store.Load(ctx, a.sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			a.logger.Warn("agent.session.load_failed", "session_id", a.sessionID,
				"error", err.Error())
		}
		return
	}

	messages, err := session.DecodeMessages(data)
	if err != nil {
		a.logger.Warn("agent.session.decode_failed", "session_id", a.sessionID,
			"error", err.Error())
		return
	}
	a.buffer.SetMessages(messages)
}

// persistSession writes the full conversation buffer back to the store.
// Failures are logged; the run result is already final.
func (a *Agent) persistSession(ctx context.Context, runID string) {
	if a.store == nil || a.sessionID == "" {
		return
	}

	data, err := session.EncodeMessages(a.buffer.Messages())
	if err != nil {
		a.logger.Warn("agent.session.encode_failed", "run_id", runID, "error", err.Error())
		return
	}
	if err := a.store.Save(ctx, a.sessionID, data); err != nil {
		a.logger.Warn("agent.session.save_failed", "run_id", runID,
			"session_id", a.sessionID, "error", err.Error())
	}
}

// historyContents converts the buffered chat history into model contents.
func historyContents(vars map[string]any) []core.Content {
	messages, _ := vars[memory.ChatHistoryKey].([]core.Message)
	contents := make([]core.Content, 0, len(messages)+1)
	for _, msg := range messages {
		contents = append(contents, core.NewTextContent(msg.Role, msg.Content))
	}
	return contents
}
