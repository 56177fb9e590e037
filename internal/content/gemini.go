package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/givepoint/donation-gateway/internal/model"
	"github.com/givepoint/donation-gateway/internal/util"
	"go.uber.org/zap"
)

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiGenerator calls a Gemini-style generateContent endpoint. One attempt
// per donation, bounded by an explicit timeout; every fault downgrades to
// the fallback text.
type GeminiGenerator struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	br       *breaker
	log      *zap.Logger
}

func NewGeminiGenerator(endpoint, model, apiKey string, timeoutMs, failThreshold, openForMs int, log *zap.Logger) *GeminiGenerator {
	if timeoutMs <= 0 {
		timeoutMs = 8000
	}
	if failThreshold <= 0 {
		failThreshold = 3
	}
	if openForMs <= 0 {
		openForMs = 15000
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &GeminiGenerator{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:       newBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
		log:      log,
	}
}

var _ Generator = (*GeminiGenerator)(nil)

func (g *GeminiGenerator) Generate(ctx context.Context, d model.Donation) (string, Source) {
	if g.apiKey == "" || !g.br.TryAcquire() {
		return Fallback(d.Donor.Name, d.Amount), SourceFallback
	}

	text, err := g.generateOnce(ctx, d)
	if err != nil {
		g.br.OnFailure()
		g.log.Warn("acknowledgement generation failed, using fallback",
			zap.String("capture_id", d.CaptureID), zap.Error(err))
		return Fallback(d.Donor.Name, d.Amount), SourceFallback
	}

	g.br.OnSuccess()
	return text, SourceGenerated
}

func (g *GeminiGenerator) generateOnce(ctx context.Context, d model.Donation) (string, error) {
	prompt := buildPrompt(d)
	body, _ := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("generator status=%d", res.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generator response: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generator returned no candidates")
	}

	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("generator returned empty text")
	}

	return text, nil
}

func buildPrompt(d model.Donation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"Write a warm, grateful thank-you note to %s, who just donated %s to our cause.",
		d.Donor.Name, util.FormatUSD(d.Amount))
	if d.Donor.Message != "" {
		fmt.Fprintf(&sb, " They left this note with their donation, please reference it: %q.", d.Donor.Message)
	}
	sb.WriteString(" Keep it to at most two sentences of plain text.")
	return sb.String()
}
