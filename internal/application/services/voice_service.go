package services

import (
	"context"
	"hash/fnv"
	"log"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// Profiles need this many samples before enrollment completes.
const enrollmentSampleTarget = 3

// VoiceService manages voice-biometric enrollments. Actual biometric scoring
// lives in an external engine; this service tracks enrollment state and
// delegates match scoring to a pluggable scorer, defaulting to a
// deterministic local stub.
type VoiceService struct {
	profiles *persistence.VoiceProfileRepository
	contacts *persistence.ContactRepository
	outbox   *OutboxService
	scorer   VoiceScorer
}

// VoiceScorer computes a match score in [0,1] for a sample against a profile.
type VoiceScorer interface {
	Score(ctx context.Context, profileID string, sampleRef string) (float64, error)
}

// localVoiceScorer is a deterministic stand-in for the external biometric
// engine, keyed on profile and sample identity.
type localVoiceScorer struct{}

func (localVoiceScorer) Score(_ context.Context, profileID, sampleRef string) (float64, error) {
	h := fnv.New32a()
	h.Write([]byte(profileID))
	h.Write([]byte(sampleRef))
	return float64(h.Sum32()%1000) / 999.0, nil
}

func NewVoiceService(profiles *persistence.VoiceProfileRepository, contacts *persistence.ContactRepository, outbox *OutboxService) *VoiceService {
	return &VoiceService{
		profiles: profiles,
		contacts: contacts,
		outbox:   outbox,
		scorer:   localVoiceScorer{},
	}
}

// SetScorer swaps in an external scoring engine.
func (s *VoiceService) SetScorer(scorer VoiceScorer) {
	s.scorer = scorer
}

type EnrollRequest struct {
	ContactID string   `json:"contact_id" binding:"required"`
	Threshold *float64 `json:"threshold"`
}

// Enroll starts enrollment for a contact. One profile per contact.
func (s *VoiceService) Enroll(ctx context.Context, req EnrollRequest, actor *auth.UserSession) (*models.VoiceProfile, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	contact, err := s.contacts.FindByID(ctx, tenantID, req.ContactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, errors.NewNotFoundError("contact", req.ContactID)
	}

	existing, err := s.profiles.FindByContact(ctx, tenantID, req.ContactID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewConflictError("voice_profile", "contact_id", req.ContactID)
	}

	threshold := 0.75
	if req.Threshold != nil {
		if *req.Threshold <= 0 || *req.Threshold >= 1 {
			return nil, errors.NewValidationError("threshold", "threshold must be in (0,1)")
		}
		threshold = *req.Threshold
	}

	now := time.Now()
	profile := &models.VoiceProfile{
		ID:        utils.GenerateID(),
		TenantID:  tenantID,
		ContactID: req.ContactID,
		Status:    constants.VoiceProfileStatusPending,
		Threshold: threshold,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.profiles.Insert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *VoiceService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.VoiceProfile, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("voice_profile", id)
	}
	return profile, nil
}

func (s *VoiceService) List(ctx context.Context, status string, actor *auth.UserSession) ([]*models.VoiceProfile, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}
	return s.profiles.FindAll(ctx, tenantID, status)
}

// AddSample registers one enrollment sample. Enrollment completes at the
// sample target.
func (s *VoiceService) AddSample(ctx context.Context, id string, actor *auth.UserSession) (*models.VoiceProfile, error) {
	profile, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if profile.Status == constants.VoiceProfileStatusFailed {
		return nil, errors.NewValidationError("status", "Enrollment has failed; re-enroll the contact")
	}
	if profile.Status == constants.VoiceProfileStatusEnrolled {
		return nil, errors.NewValidationError("status", "Profile is already enrolled")
	}

	newCount := profile.SampleCount + 1
	updates := map[string]interface{}{"sample_count": newCount}

	if newCount >= enrollmentSampleTarget {
		updates[constants.FieldStatus] = constants.VoiceProfileStatusEnrolled
	}

	if err := s.profiles.Update(ctx, profile.TenantID, profile.ID, updates); err != nil {
		return nil, err
	}

	if newCount >= enrollmentSampleTarget {
		log.Printf("✅ Voice profile enrolled: %s (contact %s)", profile.ID, profile.ContactID)
		if err := s.outbox.Enqueue(ctx, nil, EventVoiceProfileEnrolled, map[string]interface{}{
			"profile_id": profile.ID,
			"tenant_id":  profile.TenantID,
			"contact_id": profile.ContactID,
		}); err != nil {
			return nil, err
		}
	}

	return s.profiles.FindByID(ctx, profile.TenantID, profile.ID)
}

// VerifyResult is the outcome of a verification attempt.
type VerifyResult struct {
	ProfileID string  `json:"profile_id"`
	Score     float64 `json:"score"`
	Match     bool    `json:"match"`
	Threshold float64 `json:"threshold"`
}

// Verify scores a sample against an enrolled profile.
func (s *VoiceService) Verify(ctx context.Context, id, sampleRef string, actor *auth.UserSession) (*VerifyResult, error) {
	profile, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if profile.Status != constants.VoiceProfileStatusEnrolled {
		return nil, errors.NewValidationError("status", "Profile is not enrolled")
	}
	if sampleRef == "" {
		return nil, errors.NewValidationError("sample_ref", "sample_ref is required")
	}

	score, err := s.scorer.Score(ctx, profile.ID, sampleRef)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		ProfileID: profile.ID,
		Score:     score,
		Match:     score >= profile.Threshold,
		Threshold: profile.Threshold,
	}, nil
}

func (s *VoiceService) Delete(ctx context.Context, id string, actor *auth.UserSession) error {
	profile, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	return s.profiles.Delete(ctx, profile.TenantID, profile.ID)
}
