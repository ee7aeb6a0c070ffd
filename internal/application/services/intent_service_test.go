package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voxhub/backend/pkg/constants"
)

func TestIntentScoreProceed(t *testing.T) {
	svc := NewIntentService(nil)

	res, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "I want to check the balance on my account please",
		Primary:   IntentCandidate{Intent: "check_balance", Score: 0.9},
		Alternatives: []IntentCandidate{
			{Intent: "make_payment", Score: 0.4},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, "check_balance", res.Intent)
	assert.Equal(t, constants.IntentDecisionProceed, res.Decision)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.InDelta(t, 0.5, res.Margin, 1e-9)
}

func TestIntentScoreShortUtterancePenalty(t *testing.T) {
	svc := NewIntentService(nil)

	// Two tokens: -0.15
	res, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "balance please",
		Primary:   IntentCandidate{Intent: "check_balance", Score: 0.55},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 0.40, res.Confidence, 1e-9)
	assert.Equal(t, constants.IntentDecisionTransfer, res.Decision)

	// Five tokens: -0.05
	res, err = svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "check the balance for me",
		Primary:   IntentCandidate{Intent: "check_balance", Score: 0.55},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 0.50, res.Confidence, 1e-9)
}

func TestIntentScoreComplexityPenalty(t *testing.T) {
	svc := NewIntentService(nil)

	// Avg token length over 8 triggers the language-complexity penalty.
	res, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "international consolidation remittance arrangement clarification reconciliation",
		Primary:   IntentCandidate{Intent: "wire_transfer", Score: 0.70},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 0.65, res.Confidence, 1e-9)
}

func TestIntentScoreCloseAlternativeMultiplier(t *testing.T) {
	svc := NewIntentService(nil)

	res, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "I would like to pay my outstanding bill today",
		Primary:   IntentCandidate{Intent: "make_payment", Score: 0.60},
		Alternatives: []IntentCandidate{
			{Intent: "check_balance", Score: 0.52},
			{Intent: "report_fraud", Score: 0.10},
		},
	})
	assert.NoError(t, err)
	// 0.60 * 0.85 = 0.51, margin 0.08
	assert.InDelta(t, 0.51, res.Confidence, 1e-9)
	assert.InDelta(t, 0.08, res.Margin, 1e-9)
	assert.Equal(t, constants.IntentDecisionProceed, res.Decision)
}

func TestIntentScoreClarifyOnNarrowMargin(t *testing.T) {
	svc := NewIntentService(nil)

	res, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "I need some help with my thing there",
		Primary:   IntentCandidate{Intent: "make_payment", Score: 0.62},
		Alternatives: []IntentCandidate{
			{Intent: "check_balance", Score: 0.60},
		},
	})
	assert.NoError(t, err)
	// margin 0.02 < 0.05 and confidence 0.527 < 0.65 -> clarify
	assert.Equal(t, constants.IntentDecisionClarify, res.Decision)
}

func TestIntentScoreHistoryBoost(t *testing.T) {
	svc := NewIntentService(nil)
	ctx := context.Background()

	// Three successful prior outcomes: +0.10 * 1.0
	for i := 0; i < 3; i++ {
		assert.NoError(t, svc.RecordOutcome(ctx, "caller-2", "check_balance", true))
	}

	res, err := svc.Score(ctx, ScoreRequest{
		UserID:    "caller-2",
		Utterance: "can you check the balance on my savings account",
		Primary:   IntentCandidate{Intent: "check_balance", Score: 0.50},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 0.60, res.Confidence, 1e-9)

	// Under three observations no boost applies.
	assert.NoError(t, svc.RecordOutcome(ctx, "caller-3", "check_balance", true))
	res, err = svc.Score(ctx, ScoreRequest{
		UserID:    "caller-3",
		Utterance: "can you check the balance on my savings account",
		Primary:   IntentCandidate{Intent: "check_balance", Score: 0.50},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 0.50, res.Confidence, 1e-9)
}

func TestIntentScoreClamped(t *testing.T) {
	svc := NewIntentService(nil)

	res, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "hi",
		Primary:   IntentCandidate{Intent: "greeting", Score: 0.05},
	})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.Equal(t, constants.IntentDecisionTransfer, res.Decision)
}

func TestIntentScoreRejectsBadInput(t *testing.T) {
	svc := NewIntentService(nil)

	_, err := svc.Score(context.Background(), ScoreRequest{
		UserID:    "caller-1",
		Utterance: "hello there friend",
		Primary:   IntentCandidate{Intent: "greeting", Score: 1.2},
	})
	assert.Error(t, err)
}
