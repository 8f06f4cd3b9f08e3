package models

// UsageCounters track vision API calls against the daily and monthly
// ceilings. Reset dates use "2006-01-02" and "2006-01" respectively.
type UsageCounters struct {
	DailyCount       int    `json:"daily_count"`
	MonthlyCount     int    `json:"monthly_count"`
	DailyResetDate   string `json:"daily_reset_date"`
	MonthlyResetDate string `json:"monthly_reset_date"`
}

// UsageStats is the usage report exposed to the dashboard.
type UsageStats struct {
	DailyRequests     int     `json:"daily_requests"`
	DailyLimit        int     `json:"daily_limit"`
	DailyRemaining    int     `json:"daily_remaining"`
	MonthlyRequests   int     `json:"monthly_requests"`
	MonthlyLimit      int     `json:"monthly_limit"`
	MonthlyRemaining  int     `json:"monthly_remaining"`
	MonthlyCost       float64 `json:"monthly_cost"`
	MonthlyBudget     float64 `json:"monthly_budget"`
	BudgetUsedPercent float64 `json:"budget_used_percent"`
	Status            string  `json:"status"`
	CanMakeRequest    bool    `json:"can_make_request"`
}
