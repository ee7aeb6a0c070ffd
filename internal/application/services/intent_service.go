package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/voxhub/backend/internal/infrastructure/cache"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
)

// IntentService scores intent classifications from the NLU layer and decides
// whether the IVR should proceed, clarify, or hand off to an agent. History
// counters live in Redis when available, with an in-memory fallback.
type IntentService struct {
	redis *cache.Client

	mu       sync.RWMutex
	fallback map[string][2]int // userID:intent -> [successes, failures]
}

func NewIntentService(redisClient *cache.Client) *IntentService {
	return &IntentService{
		redis:    redisClient,
		fallback: make(map[string][2]int),
	}
}

// IntentCandidate is one classifier hypothesis.
type IntentCandidate struct {
	Intent string  `json:"intent" binding:"required"`
	Score  float64 `json:"score"`
}

// ScoreRequest carries the classifier output for one utterance.
type ScoreRequest struct {
	UserID       string            `json:"user_id" binding:"required"`
	Utterance    string            `json:"utterance" binding:"required"`
	Primary      IntentCandidate   `json:"primary" binding:"required"`
	Alternatives []IntentCandidate `json:"alternatives"`
}

// ScoreResult is the adjusted confidence and routing decision.
type ScoreResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Margin     float64 `json:"margin"`
	Decision   string  `json:"decision"`
}

// Thresholds of the decision policy.
const (
	intentTransferThreshold = 0.45
	intentClarifyMargin     = 0.05
	intentClarifyCeiling    = 0.65
)

// Score adjusts the classifier's raw confidence with utterance and history
// heuristics, then applies the routing policy.
func (s *IntentService) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	if req.Primary.Intent == "" {
		return nil, errors.NewValidationError("primary", "primary intent is required")
	}
	if req.Primary.Score < 0 || req.Primary.Score > 1 {
		return nil, errors.NewValidationError("primary", "primary score must be in [0,1]")
	}

	confidence := req.Primary.Score

	// Utterance heuristics
	tokens := strings.Fields(req.Utterance)
	switch {
	case len(tokens) < 3:
		confidence -= 0.15
	case len(tokens) < 6:
		confidence -= 0.05
	}

	if len(tokens) > 0 {
		totalLen := 0
		for _, tok := range tokens {
			totalLen += len(tok)
		}
		if float64(totalLen)/float64(len(tokens)) > 8 {
			confidence -= 0.05
		}
	}

	// History boost: reward intents this caller has completed before.
	successes, failures := s.history(ctx, req.UserID, req.Primary.Intent)
	if successes+failures >= 3 {
		successRate := float64(successes) / float64(successes+failures)
		confidence += 0.10 * successRate
	}

	// Alternative closeness: a near-tie with the runner-up undermines the
	// primary hypothesis.
	margin := 1.0
	if len(req.Alternatives) > 0 {
		alts := make([]IntentCandidate, len(req.Alternatives))
		copy(alts, req.Alternatives)
		sort.Slice(alts, func(i, j int) bool { return alts[i].Score > alts[j].Score })
		margin = req.Primary.Score - alts[0].Score
		if margin < 0.10 {
			confidence *= 0.85
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	decision := constants.IntentDecisionProceed
	switch {
	case confidence < intentTransferThreshold:
		decision = constants.IntentDecisionTransfer
	case margin < intentClarifyMargin && confidence < intentClarifyCeiling:
		decision = constants.IntentDecisionClarify
	}

	return &ScoreResult{
		Intent:     req.Primary.Intent,
		Confidence: confidence,
		Margin:     margin,
		Decision:   decision,
	}, nil
}

// RecordOutcome feeds back whether a proceeded intent completed successfully.
func (s *IntentService) RecordOutcome(ctx context.Context, userID, intent string, success bool) error {
	if userID == "" || intent == "" {
		return errors.NewValidationError("intent", "user_id and intent are required")
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}

	if s.redis != nil {
		if err := s.redis.IncrIntentCounter(ctx, userID, intent, outcome); err != nil {
			log.Printf("⚠️ Redis intent counter failed, using memory: %v", err)
		} else {
			return nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + ":" + intent
	counts := s.fallback[key]
	if success {
		counts[0]++
	} else {
		counts[1]++
	}
	s.fallback[key] = counts
	return nil
}

func (s *IntentService) history(ctx context.Context, userID, intent string) (int, int) {
	if s.redis != nil {
		succ, fail, err := s.redis.GetIntentCounters(ctx, userID, intent)
		if err == nil {
			return succ, fail
		}
		log.Printf("⚠️ Redis intent history failed, using memory: %v", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := s.fallback[userID+":"+intent]
	return counts[0], counts[1]
}
