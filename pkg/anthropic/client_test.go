package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1227sasaki/company-enrichment/internal/resilience"
)

func TestMessageResponseText(t *testing.T) {
	t.Parallel()
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "https://"},
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: "acme.com"},
		},
	}
	assert.Equal(t, "https://acme.com", resp.Text())
	assert.Equal(t, "", (&MessageResponse{}).Text())
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()
	usage := TokenUsage{
		InputTokens:              1_000_000,
		OutputTokens:             500_000,
		CacheCreationInputTokens: 100_000,
		CacheReadInputTokens:     2_000_000,
	}

	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	// 0.80 + 0.5*4.00 + 0.1*0.80*1.25 + 2*0.80*0.1
	assert.InDelta(t, 0.80+2.00+0.10+0.16, cost, 0.001)

	assert.Zero(t, usage.EstimateCost("unknown-model"))
}

func TestClassifyErr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		wantFatal   bool
		wantRateLim bool
		wantTrans   bool
	}{
		{name: "auth", err: eris.New(`anthropic: create message: 401 authentication_error`), wantFatal: true},
		{name: "rate_limit", err: eris.New(`anthropic: create message: 429 rate_limit_error`), wantRateLim: true},
		{name: "overloaded", err: eris.New(`anthropic: create message: 529 overloaded_error`), wantTrans: true},
		{name: "server", err: eris.New(`anthropic: create message: 500 api_error`), wantTrans: true},
		{name: "invalid_request", err: eris.New(`anthropic: create message: 400 invalid_request_error`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.wantFatal, resilience.IsFatal(got))
			_, isRate := resilience.IsRateLimit(got)
			assert.Equal(t, tt.wantRateLim, isRate)
			if tt.wantTrans || tt.wantRateLim {
				assert.True(t, resilience.IsTransient(got))
			}
		})
	}
}

func TestToSDKMessages(t *testing.T) {
	t.Parallel()
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "find the website"},
		{Role: "assistant", Content: "SEARCH: acme robotics official site"},
		{Role: "user", Content: "results: ..."},
	})
	require.Len(t, msgs, 3)
}

func TestToSDKSystemBlocks(t *testing.T) {
	t.Parallel()
	blocks := toSDKSystemBlocks([]SystemBlock{
		{Text: "plain"},
		{Text: "cached", CacheControl: &CacheControl{TTL: "5m"}},
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "plain", blocks[0].Text)
	assert.Equal(t, "cached", blocks[1].Text)
	assert.Equal(t, sdk.CacheControlEphemeralTTL("5m"), blocks[1].CacheControl.TTL)
}

func TestFromSDKMessage(t *testing.T) {
	t.Parallel()
	msg := &sdk.Message{
		ID:         "msg_01",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "end_turn",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "https://acme.com"},
		},
		Usage: sdk.Usage{
			InputTokens:  100,
			OutputTokens: 20,
		},
	}

	got := fromSDKMessage(msg)
	assert.Equal(t, "msg_01", got.ID)
	assert.Equal(t, "claude-haiku-4-5-20251001", got.Model)
	assert.Equal(t, "end_turn", got.StopReason)
	assert.Equal(t, "https://acme.com", got.Text())
	assert.Equal(t, int64(100), got.Usage.InputTokens)
	assert.Equal(t, int64(20), got.Usage.OutputTokens)
}
