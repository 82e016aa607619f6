package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlelight-labs/sift/internal/domain"
)

type stubCompleter struct {
	out     string
	err     error
	calls   int
	prompts []string
}

func (s *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

func TestDecomposer_Success(t *testing.T) {
	completer := &stubCompleter{
		out: `{"searchQueries": ["go garbage collector pacing", "go GOGC tuning"], "context": "split runtime behavior from tuning"}`,
	}
	d := NewDecomposer(completer, 3)

	dec := d.Decompose(context.Background(), "how does the Go GC pace itself?", nil)

	assert.True(t, dec.AIGenerated)
	assert.Equal(t, "how does the Go GC pace itself?", dec.CoreQuestion)
	assert.Equal(t, []string{"go garbage collector pacing", "go GOGC tuning"}, dec.SubQueries)
	assert.Equal(t, "split runtime behavior from tuning", dec.Rationale)
}

func TestDecomposer_StripsFencesAndProse(t *testing.T) {
	completer := &stubCompleter{
		out: "Here is the plan:\n```json\n{\"searchQueries\": [\"one query\"], \"context\": \"x\"}\n```",
	}
	d := NewDecomposer(completer, 3)

	dec := d.Decompose(context.Background(), "anything", nil)

	require.True(t, dec.AIGenerated)
	assert.Equal(t, []string{"one query"}, dec.SubQueries)
}

func TestDecomposer_NilCompleterFallsBack(t *testing.T) {
	d := NewDecomposer(nil, 3)

	dec := d.Decompose(context.Background(), "  what is raft?  ", nil)

	assert.False(t, dec.AIGenerated)
	assert.Equal(t, "what is raft?", dec.CoreQuestion)
	assert.Equal(t, []string{"what is raft?"}, dec.SubQueries)
}

func TestDecomposer_ModelErrorFallsBack(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream 500")}
	d := NewDecomposer(completer, 3)

	dec := d.Decompose(context.Background(), "what is raft?", nil)

	assert.False(t, dec.AIGenerated)
	assert.Equal(t, []string{"what is raft?"}, dec.SubQueries)
}

func TestDecomposer_UnparseableOutputFallsBack(t *testing.T) {
	completer := &stubCompleter{out: "I cannot answer in JSON, sorry."}
	d := NewDecomposer(completer, 3)

	dec := d.Decompose(context.Background(), "what is raft?", nil)

	assert.False(t, dec.AIGenerated)
	assert.Equal(t, []string{"what is raft?"}, dec.SubQueries)
}

func TestDecomposer_EmptyQueryListFallsBack(t *testing.T) {
	completer := &stubCompleter{out: `{"searchQueries": ["", "  "], "context": "nothing useful"}`}
	d := NewDecomposer(completer, 3)

	dec := d.Decompose(context.Background(), "what is raft?", nil)

	assert.False(t, dec.AIGenerated)
	assert.Equal(t, []string{"what is raft?"}, dec.SubQueries)
}

func TestDecomposer_DedupesAndTruncates(t *testing.T) {
	completer := &stubCompleter{
		out: `{"searchQueries": ["raft leader election", "Raft Leader Election", "raft log replication", "raft snapshots", "raft membership changes"], "context": "x"}`,
	}
	d := NewDecomposer(completer, 3)

	dec := d.Decompose(context.Background(), "explain raft", nil)

	require.True(t, dec.AIGenerated)
	assert.Equal(t, []string{"raft leader election", "raft log replication", "raft snapshots"}, dec.SubQueries)
}

func TestDecomposer_HistoryInPrompt(t *testing.T) {
	completer := &stubCompleter{out: `{"searchQueries": ["q"], "context": "x"}`}
	d := NewDecomposer(completer, 3)

	history := []domain.Turn{
		{Role: "user", Text: "tell me about etcd"},
		{Role: "assistant", Text: "etcd is a distributed key-value store"},
	}
	d.Decompose(context.Background(), "how does it elect a leader?", history)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "tell me about etcd")
	assert.Contains(t, completer.prompts[0], "how does it elect a leader?")
}
