package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/m1227sasaki/company-enrichment/internal/resilience"
	"github.com/m1227sasaki/company-enrichment/pkg/anthropic"
	"github.com/m1227sasaki/company-enrichment/pkg/jina"
)

const (
	defaultAgentModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens      = 512
	defaultRoundTimeout   = 20 * time.Second
	defaultMaxResults     = 8
	searchDirectivePrefix = "SEARCH:"
)

const agentSystemPrompt = `You locate official company websites.
When you already know the answer, reply with only the URL.
When you need to look something up, reply with exactly one line:
SEARCH: <web search query>
You get at most one search. After seeing results, reply with only the URL.
If you cannot determine the website, reply with only the word NOTFOUND.
Never guess or fabricate a URL.`

// Agent answers instructions with an LLM, granting it a single web search
// per question. Round one either answers directly or requests a search;
// when a search is requested, the results are fed back for a final answer.
//
// FindURL makes at most one backend call per round. Retrying a failed call
// is the caller's decision, not the Agent's.
type Agent struct {
	llm          anthropic.Client
	web          jina.Client
	model        string
	maxTokens    int64
	roundTimeout time.Duration
	maxResults   int
	breaker      *resilience.CircuitBreaker
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithModel overrides the default model.
func WithModel(model string) AgentOption {
	return func(a *Agent) { a.model = model }
}

// WithRoundTimeout bounds each LLM round and each web search.
func WithRoundTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.roundTimeout = d }
}

// WithMaxResults caps how many search results are shown to the model.
func WithMaxResults(n int) AgentOption {
	return func(a *Agent) { a.maxResults = n }
}

// WithBreaker installs a circuit breaker around the backend calls.
func WithBreaker(cb *resilience.CircuitBreaker) AgentOption {
	return func(a *Agent) { a.breaker = cb }
}

// NewAgent creates an Agent backed by the given LLM and search clients.
func NewAgent(llm anthropic.Client, web jina.Client, opts ...AgentOption) *Agent {
	a := &Agent{
		llm:          llm,
		web:          web,
		model:        defaultAgentModel,
		maxTokens:    defaultMaxTokens,
		roundTimeout: defaultRoundTimeout,
		maxResults:   defaultMaxResults,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// FindURL runs the one-or-two-round protocol for a single instruction.
func (a *Agent) FindURL(ctx context.Context, instruction string) (string, error) {
	if a.breaker != nil {
		if err := a.breaker.Allow(); err != nil {
			return "", eris.Wrap(err, "search: agent")
		}
	}

	messages := []anthropic.Message{
		{Role: "user", Content: instruction},
	}

	answer, err := a.round(ctx, messages)
	if err != nil {
		a.record(err)
		return "", err
	}

	query, requested := ParseSearchDirective(answer)
	if !requested {
		a.record(nil)
		return answer, nil
	}

	results, err := a.runSearch(ctx, query)
	if err != nil {
		a.record(err)
		return "", err
	}

	messages = append(messages,
		anthropic.Message{Role: "assistant", Content: answer},
		anthropic.Message{Role: "user", Content: formatResults(query, results, a.maxResults)},
	)

	final, err := a.round(ctx, messages)
	a.record(err)
	if err != nil {
		return "", err
	}
	return final, nil
}

func (a *Agent) round(ctx context.Context, messages []anthropic.Message) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, a.roundTimeout)
	defer cancel()

	resp, err := a.llm.CreateMessage(rctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.SystemBlock{{Text: agentSystemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}}},
		Messages:  messages,
	})
	if err != nil {
		return "", eris.Wrap(err, "search: agent round")
	}
	resp.Usage.LogCost(resp.Model, "search")
	return strings.TrimSpace(resp.Text()), nil
}

func (a *Agent) runSearch(ctx context.Context, query string) ([]jina.SearchResult, error) {
	zap.L().Debug("agent requested search", zap.String("query", query))

	rctx, cancel := context.WithTimeout(ctx, a.roundTimeout)
	defer cancel()

	resp, err := a.web.Search(rctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "search: web query")
	}
	return resp.Data, nil
}

func (a *Agent) record(err error) {
	if a.breaker != nil {
		a.breaker.Record(err)
	}
}

// ParseSearchDirective returns the query the model asked for, if the answer
// is a search request rather than a final answer.
func ParseSearchDirective(answer string) (string, bool) {
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, searchDirectivePrefix); ok {
			query := strings.TrimSpace(rest)
			if query != "" {
				return query, true
			}
		}
	}
	return "", false
}

// formatResults renders search results as a compact block the model can
// read back.
func formatResults(query string, results []jina.SearchResult, max int) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results for %q. Answer from what you know, or reply NOTFOUND.", query)
	}
	if len(results) > max {
		results = results[:max]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Description)
		}
	}
	sb.WriteString("Reply with only the URL, or NOTFOUND.")
	return sb.String()
}
