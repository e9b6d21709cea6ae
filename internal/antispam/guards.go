package antispam

import (
	"context"
	"strings"
)

// Outcome is the result of running a submission through the guard pipeline
type Outcome string

const (
	OutcomeAccepted          Outcome = "accepted"
	OutcomeRejectedSilently  Outcome = "rejected_silently"
	OutcomeRejectedEmpty     Outcome = "rejected_empty"
	OutcomeChallengeRequired Outcome = "challenge_required"
)

// Submission is what the guards see of one order attempt
type Submission struct {
	IP           string
	DeviceID     string
	Company      string
	ItemCount    int
	CaptchaToken string

	// Challenged is set by RateLimitGuard when the attempt window is saturated
	Challenged bool
}

// Verdict is a terminal decision. SiteKey is set for OutcomeChallengeRequired.
type Verdict struct {
	Outcome Outcome
	SiteKey string
}

// Guard inspects a submission and either passes (nil) or stops the pipeline
type Guard interface {
	Name() string
	Check(ctx context.Context, sub *Submission) *Verdict
}

// RateLimiter is the part of Gate used by RateLimitGuard
type RateLimiter interface {
	ShouldChallenge(ctx context.Context, ip, deviceID string) bool
	RecordAttempt(ctx context.Context, ip, deviceID string)
}

// HoneypotGuard drops submissions that filled the hidden company field
type HoneypotGuard struct{}

func (HoneypotGuard) Name() string { return "honeypot" }

func (HoneypotGuard) Check(_ context.Context, sub *Submission) *Verdict {
	if strings.TrimSpace(sub.Company) != "" {
		return &Verdict{Outcome: OutcomeRejectedSilently}
	}
	return nil
}

// EmptyItemsGuard rejects submissions without cart lines
type EmptyItemsGuard struct{}

func (EmptyItemsGuard) Name() string { return "empty_items" }

func (EmptyItemsGuard) Check(_ context.Context, sub *Submission) *Verdict {
	if sub.ItemCount == 0 {
		return &Verdict{Outcome: OutcomeRejectedEmpty}
	}
	return nil
}

// RateLimitGuard takes the challenge decision and then records the attempt,
// whatever the later guards decide.
type RateLimitGuard struct {
	Limiter RateLimiter
}

func (RateLimitGuard) Name() string { return "rate_limit" }

func (g RateLimitGuard) Check(ctx context.Context, sub *Submission) *Verdict {
	sub.Challenged = g.Limiter.ShouldChallenge(ctx, sub.IP, sub.DeviceID)
	g.Limiter.RecordAttempt(ctx, sub.IP, sub.DeviceID)
	return nil
}

// ChallengeGuard requires a valid token from challenged submissions
type ChallengeGuard struct {
	Verifier ChallengeVerifier
	SiteKey  string
}

func (ChallengeGuard) Name() string { return "challenge" }

func (g ChallengeGuard) Check(ctx context.Context, sub *Submission) *Verdict {
	if !sub.Challenged {
		return nil
	}
	if g.Verifier.VerifyChallengeToken(ctx, sub.CaptchaToken, sub.IP) {
		return nil
	}
	return &Verdict{Outcome: OutcomeChallengeRequired, SiteKey: g.SiteKey}
}

// Pipeline runs guards in order and stops at the first verdict
type Pipeline struct {
	guards []Guard
}

// NewPipeline creates a pipeline from the given guards
func NewPipeline(guards ...Guard) *Pipeline {
	return &Pipeline{guards: guards}
}

// NewOrderPipeline builds the order-submission guard chain
func NewOrderPipeline(limiter RateLimiter, verifier ChallengeVerifier, siteKey string) *Pipeline {
	return NewPipeline(
		HoneypotGuard{},
		EmptyItemsGuard{},
		RateLimitGuard{Limiter: limiter},
		ChallengeGuard{Verifier: verifier, SiteKey: siteKey},
	)
}

// Evaluate returns the first guard's verdict, or OutcomeAccepted if all pass
func (p *Pipeline) Evaluate(ctx context.Context, sub *Submission) Verdict {
	for _, guard := range p.guards {
		if verdict := guard.Check(ctx, sub); verdict != nil {
			return *verdict
		}
	}
	return Verdict{Outcome: OutcomeAccepted}
}
