package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fathom-run/fathom/agent"
	"github.com/fathom-run/fathom/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers each question after an optional per-question delay so
// tests can force out-of-order completion.
type fakeRunner struct {
	delays map[string]time.Duration
	fail   map[string]error
}

func (r *fakeRunner) Run(_ context.Context, query string) (*agent.Result, error) {
	if d, ok := r.delays[query]; ok {
		time.Sleep(d)
	}
	if err, ok := r.fail[query]; ok {
		return nil, err
	}
	return &agent.Result{Output: "answer to " + query}, nil
}

func factoryOf(r Runner) RunnerFactory {
	return func() (Runner, error) { return r, nil }
}

func decompositionJSON(questions ...string) string {
	quoted := make([]string, len(questions))
	for i, q := range questions {
		quoted[i] = fmt.Sprintf("%q", q)
	}
	return fmt.Sprintf(`{"sub_questions": [%s], "reasoning": "split by aspect"}`,
		strings.Join(quoted, ", "))
}

func TestParseDecomposition(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseDecomposition(decompositionJSON("q1", "q2", "q3"))
		require.NoError(t, err)
		assert.Equal(t, []string{"q1", "q2", "q3"}, d.SubQuestions)
		assert.Equal(t, "split by aspect", d.Reasoning)
	})

	t.Run("tolerates fences and prose", func(t *testing.T) {
		text := "Here you go:\n```json\n" + decompositionJSON("q1", "q2") + "\n```"
		d, err := ParseDecomposition(text)
		require.NoError(t, err)
		assert.Len(t, d.SubQuestions, 2)
	})

	t.Run("blank sub-questions dropped", func(t *testing.T) {
		d, err := ParseDecomposition(decompositionJSON("q1", "  ", "q2"))
		require.NoError(t, err)
		assert.Equal(t, []string{"q1", "q2"}, d.SubQuestions)
	})

	t.Run("count bounds enforced", func(t *testing.T) {
		for _, questions := range [][]string{
			{},
			{"only one"},
			{"1", "2", "3", "4", "5", "6"},
		} {
			_, err := ParseDecomposition(decompositionJSON(questions...))
			assert.ErrorIs(t, err, ErrStructural, "questions=%v", questions)
		}
	})

	t.Run("non-json rejected", func(t *testing.T) {
		_, err := ParseDecomposition("I cannot decompose this question.")
		assert.ErrorIs(t, err, ErrStructural)
	})
}

func TestPipelinePreservesSubQuestionOrder(t *testing.T) {
	llm := model.NewMockTextModel(
		decompositionJSON("first question", "second question", "third question"),
		"final synthesis",
	)

	// Completion order is reversed relative to declaration order.
	runner := &fakeRunner{delays: map[string]time.Duration{
		"first question":  30 * time.Millisecond,
		"second question": 15 * time.Millisecond,
	}}

	p := New(llm, factoryOf(runner))
	result, err := p.Run(context.Background(), "big question")
	require.NoError(t, err)

	require.Len(t, result.SubAnswers, 3)
	assert.Equal(t, "first question", result.SubAnswers[0].Question)
	assert.Equal(t, "answer to first question", result.SubAnswers[0].Answer)
	assert.Equal(t, "second question", result.SubAnswers[1].Question)
	assert.Equal(t, "third question", result.SubAnswers[2].Question)
	assert.Equal(t, "final synthesis", result.FinalAnswer)
}

func TestPipelineSynthesisBlockFormat(t *testing.T) {
	llm := model.NewMockTextModel(
		decompositionJSON("q1", "q2"),
		"done",
	)

	p := New(llm, factoryOf(&fakeRunner{}))
	_, err := p.Run(context.Background(), "original")
	require.NoError(t, err)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	synthesis := reqs[1].Contents[0].Text()
	assert.Contains(t, synthesis, "Original Question: original")
	assert.Contains(t, synthesis, "Q: q1\nA: answer to q1\n\nQ: q2\nA: answer to q2")
}

func TestPipelineAbortsOnSubQuestionFailure(t *testing.T) {
	llm := model.NewMockTextModel(
		decompositionJSON("ok question", "doomed question"),
		"should never synthesize",
	)

	runner := &fakeRunner{fail: map[string]error{
		"doomed question": errors.New("search backend down"),
	}}

	p := New(llm, factoryOf(runner))
	_, err := p.Run(context.Background(), "big question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search backend down")

	// Synthesis never ran: only the decomposition call reached the model.
	assert.Equal(t, 1, llm.Calls())
}

func TestPipelineStructuralFailureAborts(t *testing.T) {
	llm := model.NewMockTextModel("not json at all")

	p := New(llm, factoryOf(&fakeRunner{}))
	_, err := p.Run(context.Background(), "big question")
	assert.ErrorIs(t, err, ErrStructural)
}

func TestPipelineRunnerFactoryFailureAborts(t *testing.T) {
	llm := model.NewMockTextModel(decompositionJSON("q1", "q2"))

	p := New(llm, func() (Runner, error) {
		return nil, errors.New("no credentials")
	})
	_, err := p.Run(context.Background(), "big question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}
