// Package fathom is the composition root tying configuration, provider
// adapters, storage, and retrieval together into ready-to-use agents and
// research pipelines. Most applications:
//  1. Load a Config (environment first, optional YAML file)
//  2. Build a client via New()
//  3. Create a chat agent, research agent, or decomposition pipeline
//
// Every building block is also available directly from its own package when
// an application needs a different composition.
package fathom

import (
	"fmt"

	"github.com/fathom-run/fathom/agent"
	"github.com/fathom-run/fathom/config"
	"github.com/fathom-run/fathom/logging"
	"github.com/fathom-run/fathom/memory"
	"github.com/fathom-run/fathom/model"
	"github.com/fathom-run/fathom/model/anthropic"
	"github.com/fathom-run/fathom/model/openai"
	"github.com/fathom-run/fathom/pipeline"
	"github.com/fathom-run/fathom/retriever"
	"github.com/fathom-run/fathom/session"
	"github.com/fathom-run/fathom/tool"
)

// Client aggregates the configured model, stores, and logger behind the
// convenience constructors.
type Client struct {
	cfg    *config.Config
	llm    model.Model
	store  session.Store
	kb     retriever.Store
	logger logging.Logger
}

// Options overrides pieces of the default composition.
type Options struct {
	// Model replaces the provider adapter built from config.
	Model model.Model
	// SessionStore replaces the default file store. Set config.RedisAddr to
	// get a Redis store without supplying one here.
	SessionStore session.Store
	// KnowledgeBase replaces the default in-memory retrieval store.
	KnowledgeBase retriever.Store
	// Logger replaces the default structured logger built from config.
	Logger logging.Logger
}

// New builds a Client from configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: cfg.LogFormat,
		})
	}

	llm := opts.Model
	if llm == nil {
		var err error
		llm, err = NewModel(cfg)
		if err != nil {
			return nil, err
		}
	}

	store := opts.SessionStore
	if store == nil {
		var err error
		store, err = newSessionStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	kb := opts.KnowledgeBase
	if kb == nil {
		kb = retriever.NewInMemoryStore()
	}

	return &Client{cfg: cfg, llm: llm, store: store, kb: kb, logger: logger}, nil
}

// NewModel builds the provider adapter selected by cfg.Provider.
func NewModel(cfg *config.Config) (model.Model, error) {
	apply := func(o *model.Options) {
		if cfg.ModelName != "" {
			o.Model = cfg.ModelName
		}
		o.Temperature = cfg.Temperature
		o.MaxTokens = cfg.MaxTokens
		o.MaxRetries = cfg.MaxRetries
		o.Timeout = cfg.Timeout
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *model.Options) {
			apply(o)
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *model.Options) {
			apply(o)
			o.APIKey = cfg.OpenAIAPIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	if cfg.RedisAddr != "" {
		return session.NewRedisStore(cfg.RedisAddr), nil
	}
	return session.NewFileStore(cfg.HistoryDir)
}

// KnowledgeBase exposes the retrieval store so callers can ingest documents.
func (c *Client) KnowledgeBase() retriever.Store { return c.kb }

// Model exposes the configured model adapter.
func (c *Client) Model() model.Model { return c.llm }

// SessionStore exposes the conversation persistence backend.
func (c *Client) SessionStore() session.Store { return c.store }

// defaultTools returns the standard tool set: web search plus knowledge base
// retrieval.
func (c *Client) defaultTools() []tool.Tool {
	return []tool.Tool{
		tool.NewWebSearchTool(),
		tool.NewRetrievalTool(c.kb, c.cfg.RetrievalTopK),
	}
}

// NewChatAgent creates a persistent conversational agent for the session.
func (c *Client) NewChatAgent(sessionID string, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	base := []func(o *agent.Options){
		agent.WithTools(c.defaultTools()...),
		agent.WithSources(memory.NewRetrieverSource(c.kb, c.cfg.RetrievalTopK)),
		agent.WithSession(c.store, sessionID),
		agent.WithLogger(c.logger),
	}
	if c.cfg.MaxIterations > 0 {
		base = append(base, agent.WithMaxIterations(c.cfg.MaxIterations))
	}
	return agent.NewChatAgent(c.llm, append(base, optFns...)...)
}

// NewResearchAgent creates a stateless research agent.
func (c *Client) NewResearchAgent(optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	base := []func(o *agent.Options){
		agent.WithTools(c.defaultTools()...),
		agent.WithLogger(c.logger),
	}
	if c.cfg.MaxIterations > 0 {
		base = append(base, agent.WithMaxIterations(c.cfg.MaxIterations))
	}
	return agent.NewResearchAgent(c.llm, append(base, optFns...)...)
}

// NewPipeline creates a decomposition pipeline whose sub-questions are each
// answered by a fresh research agent.
func (c *Client) NewPipeline() *pipeline.Pipeline {
	factory := func() (pipeline.Runner, error) {
		return c.NewResearchAgent()
	}
	return pipeline.New(c.llm, factory, pipeline.WithLogger(c.logger))
}
