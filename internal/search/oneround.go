package search

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/m1227sasaki/company-enrichment/internal/resilience"
	"github.com/m1227sasaki/company-enrichment/pkg/perplexity"
)

const oneRoundSystemPrompt = `You locate official company websites using web search.
Reply with only the URL of the company's official website.
If you cannot determine the website, reply with only the word NOTFOUND.
Never guess or fabricate a URL.`

// OneRound answers instructions with a search-grounded model in a single
// call. Unlike Agent there is no explicit search round; the backend searches
// internally before answering.
//
// FindURL makes exactly one backend call. Retrying a failed call is the
// caller's decision, not the searcher's.
type OneRound struct {
	client  perplexity.Client
	timeout time.Duration
	breaker *resilience.CircuitBreaker
}

// OneRoundOption configures a OneRound searcher.
type OneRoundOption func(*OneRound)

// WithOneRoundTimeout bounds each backend call.
func WithOneRoundTimeout(d time.Duration) OneRoundOption {
	return func(o *OneRound) { o.timeout = d }
}

// WithOneRoundBreaker installs a circuit breaker around backend calls.
func WithOneRoundBreaker(cb *resilience.CircuitBreaker) OneRoundOption {
	return func(o *OneRound) { o.breaker = cb }
}

// NewOneRound creates a searcher backed by a Perplexity-style API.
func NewOneRound(client perplexity.Client, opts ...OneRoundOption) *OneRound {
	o := &OneRound{
		client:  client,
		timeout: 25 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FindURL asks the backend once and returns the trimmed answer text.
func (o *OneRound) FindURL(ctx context.Context, instruction string) (string, error) {
	if o.breaker != nil {
		if err := o.breaker.Allow(); err != nil {
			return "", eris.Wrap(err, "search: one-round")
		}
	}

	rctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	temp := 0.2
	resp, err := o.client.ChatCompletion(rctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: oneRoundSystemPrompt},
			{Role: "user", Content: instruction},
		},
		Temperature: &temp,
	})
	if o.breaker != nil {
		o.breaker.Record(err)
	}
	if err != nil {
		return "", eris.Wrap(err, "search: one-round")
	}
	return strings.TrimSpace(resp.Answer()), nil
}
