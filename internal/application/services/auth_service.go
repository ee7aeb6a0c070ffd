package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
)

// AuthService handles authentication, session management, and password operations
type AuthService struct {
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
	audit    *AuditService
}

func NewAuthService(users *persistence.UserRepository, sessions *persistence.SessionRepository, audit *AuditService) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		audit:    audit,
	}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string
	User      auth.UserSession
	ExpiresAt time.Time
}

// Login authenticates a user and creates a revocable session.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		s.audit.Record(ctx, nil, constants.SystemUserID, "login.failed", "auth", constants.AuditSeverityWarning, ip, email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	if user.PasswordHash == "" {
		return nil, errors.NewUnauthorizedError("Password authentication not configured for this user")
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		s.audit.Record(ctx, user.TenantID, user.ID, "login.failed", "auth", constants.AuditSeverityWarning, ip, email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorizedError("Account is disabled")
	}

	userSession := auth.UserSession{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
	}

	token, err := auth.GenerateToken(userSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	claims, _ := auth.DecodeToken(token)
	expiresAt := time.Unix(claims.ExpiresAt.Unix(), 0)
	now := time.Now()

	session := &models.Session{
		ID:             claims.RegisteredClaims.ID,
		UserID:         user.ID,
		Token:          token,
		ExpiresAt:      expiresAt,
		IPAddress:      ip,
		UserAgent:      userAgent,
		IsRevoked:      false,
		LastActivityAt: now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("⚠️ Failed to stamp last login for %s: %v", user.ID, err)
	}
	s.audit.Record(ctx, user.TenantID, user.ID, "login", "auth", constants.AuditSeverityInfo, ip, email)

	return &LoginResult{
		Token:     token,
		User:      userSession,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateSession checks JWT validity and server-side revocation.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.RegisteredClaims.ID)
	if err == sql.ErrNoRows {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if revoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}

	return claims, nil
}

// TouchSession updates the last activity timestamp for a session.
// Fire and forget; activity timestamps are non-critical.
func (s *AuthService) TouchSession(sessionID string) {
	go func() {
		_ = s.sessions.Touch(context.Background(), sessionID)
	}()
}

// Logout revokes the session behind a token.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		return errors.NewValidationError("token", "Invalid token")
	}

	err = s.sessions.Revoke(ctx, claims.RegisteredClaims.ID)
	if err == nil {
		log.Printf("👋 User logged out: %s (Session: %s)", claims.RegisteredClaims.Subject, claims.RegisteredClaims.ID)
	}
	return err
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("user", userID)
	}

	stored, err := s.users.FindByEmailWithPassword(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if stored == nil || stored.PasswordHash == "" {
		return errors.NewValidationError("password", "Password authentication not configured for this user")
	}

	if !auth.VerifyPassword(currentPassword, stored.PasswordHash) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.users.UpdatePassword(ctx, userID, newHash)
	if err == nil {
		log.Printf("🔐 Password changed for user: %s", userID)
	}
	return err
}

// CleanupExpiredSessions removes sessions past their expiry. Called by the
// maintenance scheduler.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, time.Now())
}
