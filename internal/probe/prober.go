// Package probe performs bounded-time liveness checks on candidate URLs and
// extracts the page title used for keyword scoring.
package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	// DefaultTimeout bounds one probe end to end.
	DefaultTimeout = 3 * time.Second
	// maxTitleLen truncates extracted titles.
	maxTitleLen = 200
	// maxBodyBytes bounds how much HTML is read looking for a title.
	maxBodyBytes = 256 * 1024

	userAgent = "Mozilla/5.0 (compatible; ResearchBot/1.0)"
)

// PageTitle is the successful outcome of a probe.
type PageTitle struct {
	Title    string
	FinalURL string
}

// Prober fetches candidate URLs with a short timeout.
type Prober struct {
	http *http.Client
}

// Option configures the prober.
type Option func(*Prober)

// WithHTTPClient overrides the default http.Client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Prober) {
		p.http = hc
	}
}

// New creates a Prober with the default bounded-time client.
func New(opts ...Option) *Prober {
	p := &Prober{
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: DefaultTimeout,
				}).DialContext,
				TLSHandshakeTimeout: DefaultTimeout,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Title fetches the URL and extracts its <title>, falling back to the first
// <h1>. A nil result means the candidate is not live (network failure,
// timeout, non-2xx, or no title/heading) and must be excluded from scoring
// rather than scored as zero.
func (p *Prober) Title(ctx context.Context, rawURL string) *PageTitle {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}

	title := extractTitle(io.LimitReader(resp.Body, maxBodyBytes))
	if title == "" {
		return nil
	}

	return &PageTitle{
		Title:    title,
		FinalURL: resp.Request.URL.String(),
	}
}

// extractTitle tokenizes HTML and returns the <title> text, else the first
// <h1> text, truncated and whitespace-collapsed.
func extractTitle(r io.Reader) string {
	z := html.NewTokenizer(r)

	var title, h1 string
	var inTitle, inH1 bool
	h1Done := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			if title != "" {
				return clean(title)
			}
			return clean(h1)
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = true
			case "h1":
				if !h1Done {
					inH1 = true
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
				if strings.TrimSpace(title) != "" {
					return clean(title)
				}
			case "h1":
				if inH1 {
					inH1 = false
					h1Done = true
				}
			}
		case html.TextToken:
			if inTitle {
				title += string(z.Text())
			} else if inH1 {
				h1 += string(z.Text())
			}
		}
	}
}

func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxTitleLen {
		s = s[:maxTitleLen]
	}
	return s
}
