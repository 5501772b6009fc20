// Package benchmarking scores an experiment by asking questions against its vector namespace.
package benchmarking

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// QuerySetName is the registered name of the question set benchmark.
	QuerySetName = "QuerySet"

	// SearchK is the number of documents retrieved per question.
	SearchK = 5
)

const promptTemplate = `You are a helpful assistant and expert in data spaces.

Always use inline references in the form [<NUMBER OF DOCUMENT>](ref:<NUMBER OF DOCUMENT>)
ONLY if you use information from a document. For example, if you use the information from
Document[3], you should write [3](ref:3) at the end of the sentence where you used that
information.
Give a precise, accurate and structured answer without repeating the question.

These are the documents:
{context}

Question:
{question}

Answer:`

// BuildPrompt renders the retrieval-augmented prompt for question.
func BuildPrompt(documents, question string) string {
	return strings.NewReplacer("{context}", documents, "{question}", question).Replace(promptTemplate)
}

// Question is one benchmark question with its accepted answers, normalized.
type Question struct {
	Question string
	Answers  []string

	Answer string
	Score  float64
}

// QuerySetParams lists questions as [question, accepted answer...] rows.
type QuerySetParams struct {
	Questions [][]string `yaml:"questions"`
}

// QuerySet asks every question through the experiment's retrieval chain and
// scores the answers.
type QuerySet struct {
	env       pipeline.Env
	questions []Question

	mu     sync.Mutex
	score  float64
	scored bool
}

// NewQuerySet implements pipeline.Factory.
func NewQuerySet(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	var p QuerySetParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}

	res := env.Resources
	for _, r := range []struct {
		name    domain.Capability
		missing bool
	}{
		{domain.ResourceStore, res.Store == nil},
		{domain.ResourceEmbedder, res.Embedder == nil},
		{domain.ResourceLLM, res.LLM == nil},
	} {
		if r.missing {
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingResource, QuerySetName), "resource", string(r.name))
		}
	}

	questions := make([]Question, 0, len(p.Questions))
	for i, row := range p.Questions {
		if len(row) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidParams, "empty question"), "index", i)
		}
		q := Question{Question: Normalize(row[0])}
		for _, a := range row[1:] {
			q.Answers = append(q.Answers, Normalize(a))
		}
		questions = append(questions, q)
	}
	return &QuerySet{env: env, questions: questions}, nil
}

// Name implements pipeline.Task.
func (q *QuerySet) Name() string { return QuerySetName }

// Filter implements pipeline.Task.
func (q *QuerySet) Filter() domain.Filter { return nil }

// Run implements pipeline.Task.
func (q *QuerySet) Run(ctx context.Context, _ string, _ *domain.CacheEntry, emit pipeline.Emit) error {
	answered := make([]Question, len(q.questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, question := range q.questions {
		g.Go(func() error {
			a, err := q.ask(gctx, question)
			if err != nil {
				return zerr.With(err, "question", question.Question)
			}
			answered[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := 0.0
	for _, a := range answered {
		emit(domain.Progressf("Question: %s, LLM: %s", a.Question, a.Answer))
		total += a.Score
	}

	if len(answered) > 0 {
		q.mu.Lock()
		q.score = total / float64(len(answered))
		q.scored = true
		q.mu.Unlock()
	}
	return nil
}

func (q *QuerySet) ask(ctx context.Context, question Question) (Question, error) {
	res := q.env.Resources
	vector, err := res.Embedder.EmbedQuery(ctx, question.Question)
	if err != nil {
		return question, err
	}
	docs, err := res.Store.SimilaritySearch(ctx, question.Question, vector, SearchK, q.env.Namespace())
	if err != nil {
		return question, err
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = "Document[" + strconv.Itoa(i) + "]: " + d.PageContent
	}

	answer, err := res.LLM.Generate(ctx, BuildPrompt(strings.Join(parts, "\n\n"), question.Question))
	if err != nil {
		return question, err
	}
	question.Answer = answer
	question.Score = Score(answer, question.Answers)
	return question, nil
}

// Score implements pipeline.Scorer. It reports false until a run with at
// least one question has finished.
func (q *QuerySet) Score() (float64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.score, q.scored
}

// Results is the result line recorded with the experiment.
func (q *QuerySet) Results() any {
	score, ok := q.Score()
	if !ok {
		return ""
	}
	return "QuerySetBenchmarking overall score: " + formatScore(score)
}

// Completed implements pipeline.Task.
func (q *QuerySet) Completed() domain.Event {
	score, _ := q.Score()
	return domain.Completedf("Mean QuerySet response score %s", formatScore(score))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
