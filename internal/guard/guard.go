// Package guard enforces the vision API call budget. It is the one
// component allowed to say "no more oracle calls today".
package guard

import (
	"sync"
	"time"

	"workzone-monitor/internal/models"

	"go.uber.org/zap"
)

// Store persists usage counters between runs. A failing store degrades the
// guard to in-memory accounting, never to unlimited calls.
type Store interface {
	LoadUsage() (*models.UsageCounters, error)
	SaveUsage(*models.UsageCounters) error
}

// Limits are the configured ceilings. Defaults mirror the corridor demo
// budget: 50 calls/day, 400 calls/month, $3.00/month with shutoff at 90%.
type Limits struct {
	DailyMaxRequests   int
	MonthlyMaxRequests int
	CostPerRequest     float64
	MonthlyBudget      float64
	EmergencyShutoff   float64
}

// DefaultLimits returns the demo budget.
func DefaultLimits() Limits {
	return Limits{
		DailyMaxRequests:   50,
		MonthlyMaxRequests: 400,
		CostPerRequest:     0.000075,
		MonthlyBudget:      3.00,
		EmergencyShutoff:   0.90,
	}
}

// Guard gates oracle calls against the configured limits. The scheduler is
// the only writer during a pass, but the stats endpoint reads concurrently,
// so all access goes through the mutex.
type Guard struct {
	limits Limits
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	counters models.UsageCounters
}

// New creates a guard, loading persisted counters from the store. A load
// failure is non-fatal: the guard starts from zero and logs the problem.
func New(limits Limits, store Store, logger *zap.Logger) *Guard {
	g := &Guard{
		limits: limits,
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	counters, err := store.LoadUsage()
	if err != nil {
		logger.Warn("Failed to load usage counters, starting from zero", zap.Error(err))
		counters = nil
	}
	if counters != nil {
		g.counters = *counters
	}
	if g.counters.DailyResetDate == "" {
		g.counters.DailyResetDate = g.now().Format("2006-01-02")
	}
	if g.counters.MonthlyResetDate == "" {
		g.counters.MonthlyResetDate = g.now().Format("2006-01")
	}

	return g
}

// resetIfNeeded zeroes a counter when its reset date has rolled over.
// Idempotent: running it twice in the same instant is a no-op.
func (g *Guard) resetIfNeeded() {
	today := g.now().Format("2006-01-02")
	thisMonth := g.now().Format("2006-01")
	changed := false

	if g.counters.DailyResetDate != today {
		g.logger.Info("Daily usage counter reset",
			zap.String("previous_date", g.counters.DailyResetDate),
			zap.Int("previous_count", g.counters.DailyCount))
		g.counters.DailyCount = 0
		g.counters.DailyResetDate = today
		changed = true
	}

	if g.counters.MonthlyResetDate != thisMonth {
		g.logger.Info("Monthly usage counter reset",
			zap.String("previous_month", g.counters.MonthlyResetDate),
			zap.Int("previous_count", g.counters.MonthlyCount))
		g.counters.MonthlyCount = 0
		g.counters.MonthlyResetDate = thisMonth
		changed = true
	}

	if changed {
		g.persist()
	}
}

// CanProceed reports whether another oracle call fits inside the budget.
// The rollover check runs first so a stale counter never blocks a new day.
func (g *Guard) CanProceed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canProceedLocked()
}

func (g *Guard) canProceedLocked() bool {
	g.resetIfNeeded()

	if g.counters.DailyCount >= g.limits.DailyMaxRequests {
		g.logger.Warn("Daily request limit reached",
			zap.Int("daily_count", g.counters.DailyCount),
			zap.Int("daily_max", g.limits.DailyMaxRequests))
		return false
	}

	if g.counters.MonthlyCount >= g.limits.MonthlyMaxRequests {
		g.logger.Warn("Monthly request limit reached",
			zap.Int("monthly_count", g.counters.MonthlyCount),
			zap.Int("monthly_max", g.limits.MonthlyMaxRequests))
		return false
	}

	monthlyCost := float64(g.counters.MonthlyCount) * g.limits.CostPerRequest
	if monthlyCost >= g.limits.MonthlyBudget*g.limits.EmergencyShutoff {
		g.logger.Error("Emergency budget shutoff reached",
			zap.Float64("monthly_cost", monthlyCost),
			zap.Float64("monthly_budget", g.limits.MonthlyBudget))
		return false
	}

	return true
}

// RecordCall increments both counters and persists them. Call exactly once
// per permitted oracle call.
func (g *Guard) RecordCall() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters.DailyCount++
	g.counters.MonthlyCount++
	g.persist()

	monthlyCost := float64(g.counters.MonthlyCount) * g.limits.CostPerRequest
	g.logger.Debug("Oracle call recorded",
		zap.Int("daily_count", g.counters.DailyCount),
		zap.Int("monthly_count", g.counters.MonthlyCount),
		zap.Float64("monthly_cost", monthlyCost))
}

// persist writes counters through the store. Failures are logged; the
// in-memory counters stay authoritative for this process.
func (g *Guard) persist() {
	counters := g.counters
	if err := g.store.SaveUsage(&counters); err != nil {
		g.logger.Error("Failed to persist usage counters", zap.Error(err))
	}
}

// Stats returns a usage report for the dashboard.
func (g *Guard) Stats() models.UsageStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resetIfNeeded()

	monthlyCost := float64(g.counters.MonthlyCount) * g.limits.CostPerRequest
	budgetUsed := 0.0
	if g.limits.MonthlyBudget > 0 {
		budgetUsed = monthlyCost / g.limits.MonthlyBudget * 100
	}

	return models.UsageStats{
		DailyRequests:     g.counters.DailyCount,
		DailyLimit:        g.limits.DailyMaxRequests,
		DailyRemaining:    g.limits.DailyMaxRequests - g.counters.DailyCount,
		MonthlyRequests:   g.counters.MonthlyCount,
		MonthlyLimit:      g.limits.MonthlyMaxRequests,
		MonthlyRemaining:  g.limits.MonthlyMaxRequests - g.counters.MonthlyCount,
		MonthlyCost:       monthlyCost,
		MonthlyBudget:     g.limits.MonthlyBudget,
		BudgetUsedPercent: budgetUsed,
		Status:            budgetStatus(budgetUsed),
		CanMakeRequest:    g.canProceedLocked(),
	}
}

func budgetStatus(usedPercent float64) string {
	switch {
	case usedPercent < 25:
		return "safe"
	case usedPercent < 50:
		return "monitor"
	case usedPercent < 75:
		return "caution"
	case usedPercent < 90:
		return "warning"
	default:
		return "critical"
	}
}
