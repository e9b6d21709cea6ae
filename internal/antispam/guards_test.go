package antispam

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	ok     bool
	calls  int
	tokens []string
}

func (s *stubVerifier) VerifyChallengeToken(_ context.Context, token, _ string) bool {
	s.calls++
	s.tokens = append(s.tokens, token)
	return s.ok && token != ""
}

type recordingLimiter struct {
	challenge bool
	events    []string
}

func (l *recordingLimiter) ShouldChallenge(context.Context, string, string) bool {
	l.events = append(l.events, "decide")
	return l.challenge
}

func (l *recordingLimiter) RecordAttempt(context.Context, string, string) {
	l.events = append(l.events, "record")
}

func TestPipeline_HoneypotRejectsSilentlyWithoutSideEffects(t *testing.T) {
	limiter := &recordingLimiter{}
	verifier := &stubVerifier{ok: true}
	p := NewOrderPipeline(limiter, verifier, "site")

	verdict := p.Evaluate(context.Background(), &Submission{Company: " ACME ", ItemCount: 1})

	assert.Equal(t, OutcomeRejectedSilently, verdict.Outcome)
	assert.Empty(t, limiter.events)
	assert.Zero(t, verifier.calls)
}

func TestPipeline_BlankHoneypotPasses(t *testing.T) {
	p := NewOrderPipeline(&recordingLimiter{}, &stubVerifier{}, "site")

	verdict := p.Evaluate(context.Background(), &Submission{Company: "   ", ItemCount: 1})
	assert.Equal(t, OutcomeAccepted, verdict.Outcome)
}

func TestPipeline_EmptyItems(t *testing.T) {
	limiter := &recordingLimiter{}
	p := NewOrderPipeline(limiter, &stubVerifier{}, "site")

	verdict := p.Evaluate(context.Background(), &Submission{})

	assert.Equal(t, OutcomeRejectedEmpty, verdict.Outcome)
	assert.Empty(t, limiter.events)
}

func TestPipeline_RecordsAttemptAfterDecision(t *testing.T) {
	limiter := &recordingLimiter{}
	p := NewOrderPipeline(limiter, &stubVerifier{}, "site")

	verdict := p.Evaluate(context.Background(), &Submission{ItemCount: 2})

	assert.Equal(t, OutcomeAccepted, verdict.Outcome)
	assert.Equal(t, []string{"decide", "record"}, limiter.events)
}

func TestPipeline_ChallengeRequiredCarriesSiteKey(t *testing.T) {
	limiter := &recordingLimiter{challenge: true}
	verifier := &stubVerifier{ok: false}
	p := NewOrderPipeline(limiter, verifier, "site-key")

	verdict := p.Evaluate(context.Background(), &Submission{ItemCount: 1, CaptchaToken: "bad"})

	assert.Equal(t, OutcomeChallengeRequired, verdict.Outcome)
	assert.Equal(t, "site-key", verdict.SiteKey)
	assert.Equal(t, []string{"decide", "record"}, limiter.events, "failed attempts still count")
}

func TestPipeline_ValidTokenPassesChallenge(t *testing.T) {
	verifier := &stubVerifier{ok: true}
	p := NewOrderPipeline(&recordingLimiter{challenge: true}, verifier, "site")

	verdict := p.Evaluate(context.Background(), &Submission{ItemCount: 1, CaptchaToken: "good"})

	assert.Equal(t, OutcomeAccepted, verdict.Outcome)
	assert.Equal(t, []string{"good"}, verifier.tokens)
}

func TestPipeline_NoChallengeSkipsVerifier(t *testing.T) {
	verifier := &stubVerifier{ok: true}
	p := NewOrderPipeline(&recordingLimiter{}, verifier, "site")

	p.Evaluate(context.Background(), &Submission{ItemCount: 1, CaptchaToken: "good"})
	assert.Zero(t, verifier.calls)
}

func TestPipeline_WithGate_ThirdSubmissionIsChallenged(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	gate := NewGate(NewMemoryAttemptStore(), 2, 5*time.Minute, nil).WithClock(clock.Now)
	p := NewOrderPipeline(gate, &stubVerifier{ok: false}, "site")

	submit := func() Outcome {
		return p.Evaluate(ctx, &Submission{IP: "9.9.9.9", DeviceID: "d", ItemCount: 1}).Outcome
	}

	assert.Equal(t, OutcomeAccepted, submit())
	assert.Equal(t, OutcomeAccepted, submit())
	assert.Equal(t, OutcomeChallengeRequired, submit())

	clock.Advance(6 * time.Minute)
	assert.Equal(t, OutcomeAccepted, submit())
}
