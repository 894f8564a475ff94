// Package pipeline decomposes a complex question into independent
// sub-questions, answers them concurrently with isolated agent runs, and
// synthesizes the results into one final answer.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fathom-run/fathom/agent"
	"github.com/fathom-run/fathom/core"
	"github.com/fathom-run/fathom/logging"
	"github.com/fathom-run/fathom/model"
)

const (
	// MinSubQuestions and MaxSubQuestions bound a valid decomposition.
	MinSubQuestions = 2
	MaxSubQuestions = 5
)

// ErrStructural reports a decomposition the model produced that violates the
// structural contract (unparseable, too few or too many sub-questions).
var ErrStructural = fmt.Errorf("structurally invalid decomposition")

// Decomposition is the model's breakdown of the original question.
type Decomposition struct {
	SubQuestions []string `json:"sub_questions"`
	Reasoning    string   `json:"reasoning"`
}

// SubAnswer pairs a sub-question with the answer an agent produced for it.
type SubAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Result is the full output of a pipeline run.
type Result struct {
	OriginalQuestion string        `json:"original_question"`
	Decomposition    Decomposition `json:"decomposition"`
	SubAnswers       []SubAnswer   `json:"sub_answers"`
	FinalAnswer      string        `json:"final_answer"`
}

// Runner answers a single question. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, query string) (*agent.Result, error)
}

// RunnerFactory builds a fresh Runner per sub-question so concurrent runs
// share no conversation state.
type RunnerFactory func() (Runner, error)

// Options configures a Pipeline.
type Options struct {
	Logger logging.Logger
}

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Pipeline orchestrates decompose, fan out, synthesize.
type Pipeline struct {
	llm     model.Model
	factory RunnerFactory
	logger  logging.Logger
}

// New creates a pipeline. The model handles decomposition and synthesis; the
// factory supplies the per-sub-question research runners.
func New(llm model.Model, factory RunnerFactory, optFns ...func(o *Options)) *Pipeline {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{
		llm:     llm,
		factory: factory,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Run executes the three stages in order. Any sub-question failure aborts the
// whole run; partial synthesis over missing answers is never attempted.
func (p *Pipeline) Run(ctx context.Context, question string) (*Result, error) {
	runID := core.NewID()
	p.logger.Info("pipeline.run.start", "run_id", runID)

	decomposition, err := p.decompose(ctx, question)
	if err != nil {
		return nil, err
	}
	p.logger.Info("pipeline.decomposed", "run_id", runID,
		"sub_questions", len(decomposition.SubQuestions))

	subAnswers, err := p.fanOut(ctx, decomposition.SubQuestions)
	if err != nil {
		return nil, err
	}

	finalAnswer, err := p.synthesize(ctx, question, subAnswers)
	if err != nil {
		return nil, err
	}

	p.logger.Info("pipeline.run.done", "run_id", runID)
	return &Result{
		OriginalQuestion: question,
		Decomposition:    *decomposition,
		SubAnswers:       subAnswers,
		FinalAnswer:      finalAnswer,
	}, nil
}

const decompositionPrompt = `You are a research assistant that breaks down complex questions into simpler sub-questions.

Given a complex research question, decompose it into 2-5 simpler sub-questions that:
1. Can be answered independently
2. Together provide enough information to answer the original question
3. Are specific and focused
4. Progress logically from foundational to more complex

Each sub-question must be fully self-contained: it will be answered by a researcher who cannot see the original question or the other sub-questions, so never refer to "it", "this", "the above", or any earlier sub-question.

Complex Question: %s

Respond with a JSON object of the form:
{"sub_questions": ["...", "..."], "reasoning": "brief explanation of the decomposition strategy"}

Be strategic: sometimes you need background info first, sometimes you need to compare multiple aspects.`

// decompose asks the model for sub-questions and validates the structure.
func (p *Pipeline) decompose(ctx context.Context, question string) (*Decomposition, error) {
	resp, err := p.llm.Generate(ctx, model.Request{
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, fmt.Sprintf(decompositionPrompt, question)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decomposition call failed: %w", err)
	}

	decomposition, err := ParseDecomposition(resp.Content.Text())
	if err != nil {
		return nil, err
	}
	return decomposition, nil
}

// ParseDecomposition extracts and validates a Decomposition from model text.
// Surrounding prose and code fences around the JSON object are tolerated.
func ParseDecomposition(text string) (*Decomposition, error) {
	payload := extractJSONObject(text)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrStructural)
	}

	var d Decomposition
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructural, err)
	}

	questions := make([]string, 0, len(d.SubQuestions))
	for _, q := range d.SubQuestions {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	d.SubQuestions = questions

	if len(d.SubQuestions) < MinSubQuestions || len(d.SubQuestions) > MaxSubQuestions {
		return nil, fmt.Errorf("%w: got %d sub-questions, want %d-%d",
			ErrStructural, len(d.SubQuestions), MinSubQuestions, MaxSubQuestions)
	}
	return &d, nil
}

// extractJSONObject returns the first top-level {...} span in text.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// fanOut answers every sub-question concurrently. Answers land at the index
// of their question regardless of completion order. The first failure wins;
// remaining answers are discarded.
func (p *Pipeline) fanOut(ctx context.Context, questions []string) ([]SubAnswer, error) {
	answers := make([]SubAnswer, len(questions))
	errCh := make(chan error, len(questions))

	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Add(1)
		go func(idx int, subQuestion string) {
			defer wg.Done()

			runner, err := p.factory()
			if err != nil {
				errCh <- fmt.Errorf("sub-question %d: create runner: %w", idx+1, err)
				return
			}

			result, err := runner.Run(ctx, subQuestion)
			if err != nil {
				errCh <- fmt.Errorf("sub-question %d failed: %w", idx+1, err)
				return
			}
			answers[idx] = SubAnswer{Question: subQuestion, Answer: result.Output}
		}(i, q)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	return answers, nil
}

const synthesisPrompt = `You are synthesizing research findings into a comprehensive answer.

Original Question: %s

Sub-questions and their answers:
%s

Task: Provide a well-structured, comprehensive answer to the original question by:
1. Integrating information from all sub-answers
2. Resolving any contradictions
3. Highlighting key insights
4. Noting any gaps or limitations

Synthesized Answer:`

// synthesize folds the ordered sub-answers into one final answer.
func (p *Pipeline) synthesize(ctx context.Context, question string, subAnswers []SubAnswer) (string, error) {
	blocks := make([]string, len(subAnswers))
	for i, sa := range subAnswers {
		blocks[i] = fmt.Sprintf("Q: %s\nA: %s", sa.Question, sa.Answer)
	}

	resp, err := p.llm.Generate(ctx, model.Request{
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser,
				fmt.Sprintf(synthesisPrompt, question, strings.Join(blocks, "\n\n"))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesis call failed: %w", err)
	}
	return resp.Content.Text(), nil
}
