package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// TranscriptionProvider converts a call recording to text. Third-party STT
// engines implement this; the default is a deterministic local provider so
// the pipeline works without external services.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, callID, language string) (string, error)
}

// LocalTranscriptionProvider is the no-dependency default. Output is
// deterministic per call so tests and dev environments behave predictably.
type LocalTranscriptionProvider struct{}

func (LocalTranscriptionProvider) Transcribe(_ context.Context, callID, language string) (string, error) {
	return fmt.Sprintf("[%s] automated transcript for call %s", language, callID), nil
}

// HTTPTranscriptionProvider posts the job to an external STT endpoint.
type HTTPTranscriptionProvider struct {
	URL    string
	Client *http.Client
}

func (p *HTTPTranscriptionProvider) Transcribe(ctx context.Context, callID, language string) (string, error) {
	body, err := json.Marshal(map[string]string{"call_id": callID, "language": language})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription provider returned status %d", resp.StatusCode)
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return out.Transcript, nil
}

// NewTranscriptionProviderFromEnv returns the HTTP provider when
// TRANSCRIBE_URL is set, the local provider otherwise.
func NewTranscriptionProviderFromEnv() TranscriptionProvider {
	if url := os.Getenv("TRANSCRIBE_URL"); url != "" {
		log.Printf("✅ External transcription provider: %s", url)
		return &HTTPTranscriptionProvider{URL: url, Client: &http.Client{Timeout: 60 * time.Second}}
	}
	return LocalTranscriptionProvider{}
}

// TranscriptionService queues speech-to-text jobs and runs the worker side of
// the pipeline: claim, transcribe, redact, attach, mark done.
type TranscriptionService struct {
	jobs     *persistence.TranscriptionRepository
	calls    *CallService
	settings *SettingService
	provider TranscriptionProvider
}

func NewTranscriptionService(jobs *persistence.TranscriptionRepository, calls *CallService, settings *SettingService, provider TranscriptionProvider) *TranscriptionService {
	return &TranscriptionService{
		jobs:     jobs,
		calls:    calls,
		settings: settings,
		provider: provider,
	}
}

type CreateTranscriptionRequest struct {
	CallID   string `json:"call_id" binding:"required"`
	Language string `json:"language"`
}

// Create queues a transcription job for a call.
func (s *TranscriptionService) Create(ctx context.Context, req CreateTranscriptionRequest, actor *auth.UserSession) (*models.TranscriptionJob, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	// The call must exist within the tenant.
	if _, err := s.calls.Get(ctx, req.CallID, actor); err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = s.settings.GetString(ctx, &tenantID, constants.SettingTranscriptionLanguage, "en-US")
	}

	job := &models.TranscriptionJob{
		ID:        utils.GenerateID(),
		TenantID:  tenantID,
		CallID:    req.CallID,
		Language:  language,
		Status:    constants.TranscriptionStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.jobs.Insert(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *TranscriptionService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.TranscriptionJob, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.NewNotFoundError("transcription_job", id)
	}
	return job, nil
}

func (s *TranscriptionService) List(ctx context.Context, status string, limit int, actor *auth.UserSession) ([]*models.TranscriptionJob, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.jobs.FindAll(ctx, tenantID, status, limit)
}

// ProcessNext claims and processes the oldest pending job. Returns false when
// the queue was empty. Called from the scheduler loop.
func (s *TranscriptionService) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.jobs.ClaimOldestPending(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log.Printf("🎙️ Processing transcription job %s (call %s, attempt %d)", job.ID, job.CallID, job.Attempts)

	transcript, err := s.provider.Transcribe(ctx, job.CallID, job.Language)
	if err != nil {
		return true, s.fail(ctx, job, err)
	}

	// Redaction happens inside the call service before storage.
	if _, err := s.calls.AttachTranscriptSystem(ctx, job.TenantID, job.CallID, transcript); err != nil {
		return true, s.fail(ctx, job, err)
	}

	if err := s.jobs.MarkCompleted(ctx, job.ID, time.Now()); err != nil {
		return true, err
	}

	log.Printf("✅ Transcription job completed: %s", job.ID)
	return true, nil
}

func (s *TranscriptionService) fail(ctx context.Context, job *models.TranscriptionJob, cause error) error {
	log.Printf("⚠️ Transcription job %s failed (attempt %d/%d): %v", job.ID, job.Attempts, constants.TranscriptionMaxAttempts, cause)
	if err := s.jobs.MarkFailed(ctx, job.ID, job.Attempts, cause.Error()); err != nil {
		return err
	}
	return cause
}
