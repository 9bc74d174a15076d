package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/risks"
	judgementschema "vigil.fyi/riskradar/schema"
)

// Judgement sources.
const (
	SourceModel           = "model"
	SourceKeywordFallback = "keyword-fallback"
)

// Event is the analyzer's view of one stored external event.
type Event struct {
	Title           string
	Summary         string
	Category        string
	MatchedKeywords []string
}

// Judgement is the relevance verdict for one event. RiskCodes only ever
// contains codes present in the organization's register.
type Judgement struct {
	Relevant          bool
	RiskCodes         []string
	Confidence        float64
	LikelihoodDelta   int
	Reasoning         string
	ImpactAssessment  string
	SuggestedControls []string
	Source            string
}

type Options struct {
	ModelTimeout      time.Duration
	ModelCallInterval time.Duration
}

// Analyzer turns events into judgements. The model path is best-effort: any
// failure, malformed reply, or inconclusive verdict falls through to the
// deterministic keyword fallback, so Analyze never returns an error for
// model-side problems.
type Analyzer struct {
	client  ModelClient
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger
}

func New(client ModelClient, opts Options, logger zerolog.Logger) *Analyzer {
	timeout := opts.ModelTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	interval := opts.ModelCallInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Analyzer{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		timeout: timeout,
		logger:  logger,
	}
}

// Analyze judges one event against the organization's risk list. A nil model
// client (keyword-only mode) goes straight to the fallback.
func (a *Analyzer) Analyze(ctx context.Context, event Event, riskList []risks.Risk, set *keywords.Set) (Judgement, error) {
	if a == nil {
		return Judgement{}, fmt.Errorf("analyzer is not initialized")
	}

	if a.client == nil {
		return FallbackJudgement(event, riskList, set), nil
	}

	judgement, err := a.judgeWithModel(ctx, event, riskList)
	if err != nil {
		if ctx.Err() != nil {
			// The whole run is out of time; let the caller stop cleanly.
			return Judgement{}, ctx.Err()
		}
		a.logger.Warn().Err(err).Str("event_title", event.Title).Msg("model judgement failed, using keyword fallback")
		return FallbackJudgement(event, riskList, set), nil
	}

	if !judgement.Relevant || len(judgement.RiskCodes) == 0 {
		// Inconclusive model verdicts get a second opinion from the keywords.
		fallback := FallbackJudgement(event, riskList, set)
		if fallback.Relevant {
			return fallback, nil
		}
	}
	return judgement, nil
}

func (a *Analyzer) judgeWithModel(ctx context.Context, event Event, riskList []risks.Risk) (Judgement, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return Judgement{}, fmt.Errorf("wait for model call slot: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.client.Judge(callCtx, systemPrompt, BuildPrompt(event, riskList))
	if err != nil {
		return Judgement{}, err
	}

	payload, err := judgementschema.ValidateJudgementPayload([]byte(raw))
	if err != nil {
		return Judgement{}, fmt.Errorf("invalid model reply: %w", err)
	}

	judgement := Judgement{
		Relevant:          payload.Relevant,
		Confidence:        clampConfidence(payload.Confidence),
		LikelihoodDelta:   clampLikelihoodDelta(payload.LikelihoodChange),
		Reasoning:         payload.Reasoning,
		ImpactAssessment:  payload.ImpactAssessment,
		SuggestedControls: payload.SuggestedControls,
		Source:            SourceModel,
	}

	// Unknown codes are dropped, not errors: the model occasionally invents
	// codes despite the instructions.
	for _, code := range payload.RiskCodes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || !risks.HasCode(riskList, code) {
			continue
		}
		judgement.RiskCodes = append(judgement.RiskCodes, code)
	}
	if payload.Relevant && len(judgement.RiskCodes) == 0 {
		judgement.Relevant = false
	}

	return judgement, nil
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func clampLikelihoodDelta(delta int) int {
	if delta < -2 {
		return -2
	}
	if delta > 2 {
		return 2
	}
	return delta
}
