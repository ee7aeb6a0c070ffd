package services

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

const (
	forecastIntervalSecs  = 1800.0
	forecastAlpha         = 0.3
	forecastHistoryWeeks  = 4
	defaultServiceLevel   = 0.80
	defaultTargetWaitSecs = 20.0
	defaultHandleSecs     = 240.0
	maxForecastAgents     = 500
)

// ForecastService builds next-day staffing forecasts from historical call
// volume. Per-interval volume is smoothed exponentially over the same
// weekday's history and staffed with Erlang C. Service level, target wait and
// the handle-time fallback come from admin settings per tenant.
type ForecastService struct {
	calls     *persistence.CallRepository
	forecasts *persistence.ForecastRepository
	settings  *SettingService
	outbox    *OutboxService
}

func NewForecastService(calls *persistence.CallRepository, forecasts *persistence.ForecastRepository, settings *SettingService, outbox *OutboxService) *ForecastService {
	return &ForecastService{
		calls:     calls,
		forecasts: forecasts,
		settings:  settings,
		outbox:    outbox,
	}
}

// erlangC is the probability an arriving call has to wait, for offered load a
// (in erlangs) served by n agents.
func erlangC(a float64, n int) float64 {
	if float64(n) <= a {
		return 1.0
	}

	// Sum the Erlang B recurrence, then convert.
	b := 1.0
	for i := 1; i <= n; i++ {
		b = a * b / (float64(i) + a*b)
	}

	rho := a / float64(n)
	return b / (1 - rho*(1-b))
}

// requiredAgents returns the smallest agent count meeting the service level
// target (fraction of calls answered within targetWaitSecs).
func requiredAgents(calls, handleSecs, serviceLevel, targetWaitSecs float64) int {
	if calls <= 0 {
		return 0
	}

	a := calls * handleSecs / forecastIntervalSecs
	n := int(math.Ceil(a))
	if n < 1 {
		n = 1
	}

	for ; n <= maxForecastAgents; n++ {
		if float64(n) <= a {
			continue
		}
		pw := erlangC(a, n)
		sl := 1 - pw*math.Exp(-(float64(n)-a)*targetWaitSecs/handleSecs)
		if sl >= serviceLevel {
			return n
		}
	}
	return maxForecastAgents
}

// intervalSlot identifies a half-hour position within a day (0..47).
func intervalSlot(t time.Time) int {
	t = t.UTC()
	return t.Hour()*2 + t.Minute()/30
}

// smoothVolumes applies exponential smoothing over a chronological series.
func smoothVolumes(series []float64, alpha float64) float64 {
	if len(series) == 0 {
		return 0
	}
	s := series[0]
	for _, v := range series[1:] {
		s = alpha*v + (1-alpha)*s
	}
	return s
}

// Generate rebuilds tomorrow's forecast for a tenant from the trailing four
// weeks of call volume.
func (s *ForecastService) Generate(ctx context.Context, tenantID string) ([]*models.StaffingForecast, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7*forecastHistoryWeeks)

	volumes, err := s.calls.VolumeByInterval(ctx, tenantID, from, now)
	if err != nil {
		return nil, err
	}

	serviceLevel := s.settings.GetFloat(ctx, &tenantID, constants.SettingForecastServiceLevel, defaultServiceLevel)
	targetWait := s.settings.GetFloat(ctx, &tenantID, constants.SettingForecastTargetWaitSecs, defaultTargetWaitSecs)
	handleFallback := s.settings.GetFloat(ctx, &tenantID, constants.SettingForecastHandleSecs, defaultHandleSecs)

	tomorrow := now.AddDate(0, 0, 1)
	targetWeekday := tomorrow.Weekday()

	// Chronological per-slot history restricted to the target weekday.
	slotSeries := make(map[int][]float64)
	slotHandle := make(map[int][]float64)
	for _, v := range volumes {
		if v.IntervalStart.UTC().Weekday() != targetWeekday {
			continue
		}
		slot := intervalSlot(v.IntervalStart)
		slotSeries[slot] = append(slotSeries[slot], float64(v.Calls))
		if v.AvgHandleSecs > 0 {
			slotHandle[slot] = append(slotHandle[slot], v.AvgHandleSecs)
		}
	}

	dayStart := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	generatedAt := time.Now()

	forecasts := make([]*models.StaffingForecast, 0, 48)
	for slot := 0; slot < 48; slot++ {
		calls := smoothVolumes(slotSeries[slot], forecastAlpha)
		if calls <= 0 {
			continue
		}

		handle := handleFallback
		if samples := slotHandle[slot]; len(samples) > 0 {
			sum := 0.0
			for _, h := range samples {
				sum += h
			}
			handle = sum / float64(len(samples))
		}

		forecasts = append(forecasts, &models.StaffingForecast{
			ID:             utils.GenerateID(),
			TenantID:       tenantID,
			IntervalStart:  dayStart.Add(time.Duration(slot) * 30 * time.Minute),
			ForecastCalls:  math.Round(calls*100) / 100,
			AvgHandleSecs:  math.Round(handle*100) / 100,
			RequiredAgents: requiredAgents(calls, handle, serviceLevel, targetWait),
			GeneratedAt:    generatedAt,
		})
	}

	if err := s.forecasts.ReplaceForGeneration(ctx, tenantID, forecasts); err != nil {
		return nil, err
	}

	if len(forecasts) > 0 {
		if err := s.outbox.Enqueue(ctx, nil, EventForecastGenerated, map[string]interface{}{
			"tenant_id": tenantID,
			"intervals": len(forecasts),
			"for_date":  dayStart.Format("2006-01-02"),
		}); err != nil {
			log.Printf("⚠️ Failed to enqueue forecast event for tenant %s: %v", tenantID, err)
		}
	}

	log.Printf("✅ Forecast generated for tenant %s: %d intervals", tenantID, len(forecasts))
	return forecasts, nil
}

// Refresh regenerates the caller's tenant forecast on demand.
func (s *ForecastService) Refresh(ctx context.Context, actor *auth.UserSession) ([]*models.StaffingForecast, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, tenantID)
}

// List returns forecast intervals in a window.
func (s *ForecastService) List(ctx context.Context, from, to time.Time, actor *auth.UserSession) ([]*models.StaffingForecast, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, errors.NewValidationError("range", "End of range must be after start")
	}
	return s.forecasts.FindRange(ctx, tenantID, from, to)
}
