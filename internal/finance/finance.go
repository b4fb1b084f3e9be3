// Package finance derives display figures from the entity records. Every
// function is pure: totals are recomputed from scratch on each call so the
// results can never drift from the underlying transaction log.
package finance

import (
	"fmt"
	"math"
	"time"

	"fined/internal/models"
)

// Summary is the balance overview derived from the transaction log.
type Summary struct {
	Income   float64
	Expenses float64
	Balance  float64
}

// ComputeBalance sums the transaction log. Balance may be negative.
func ComputeBalance(txs []models.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Kind {
		case models.KindIncome:
			s.Income += t.Amount
		case models.KindExpense:
			s.Expenses += t.Amount
		}
	}
	s.Balance = s.Income - s.Expenses
	return s
}

// ApplyExpenseToBudget adds amount to the running spend of every plan whose
// category exactly equals category. An expense with no matching plan is
// simply unaccounted in budget tracking.
func ApplyExpenseToBudget(plans []models.BudgetPlan, category string, amount float64) {
	for i := range plans {
		if plans[i].Category == category {
			plans[i].Spent += amount
		}
	}
}

// RebuildBudgetSpent recomputes every plan's spent counter from the
// transaction log, replacing whatever was cached. Called after loading a
// bundle so a stale persisted counter is never trusted.
func RebuildBudgetSpent(plans []models.BudgetPlan, txs []models.Transaction) {
	for i := range plans {
		plans[i].Spent = 0
	}
	for _, t := range txs {
		if t.Kind == models.KindExpense {
			ApplyExpenseToBudget(plans, t.Category, t.Amount)
		}
	}
}

// Budget plan statuses.
const (
	BudgetGood    = "good"
	BudgetWarning = "warning"
	BudgetOver    = "over-budget"
)

// BudgetStatus is the derived state of one budget plan.
type BudgetStatus struct {
	// Progress is spent as a percentage of the ceiling, unclamped.
	Progress  float64
	Remaining float64
	Status    string
}

// StatusOfBudget derives progress, remaining headroom and a status label for
// one plan.
func StatusOfBudget(plan models.BudgetPlan) BudgetStatus {
	var progress float64
	if plan.Amount > 0 {
		progress = plan.Spent / plan.Amount * 100
	}
	status := BudgetGood
	switch {
	case progress > 100:
		status = BudgetOver
	case progress > 80:
		status = BudgetWarning
	}
	return BudgetStatus{
		Progress:  progress,
		Remaining: plan.Amount - plan.Spent,
		Status:    status,
	}
}

// GoalProgress is the derived state of one goal plan.
type GoalProgress struct {
	// Percent is clamped to [0,100] for progress-bar rendering.
	Percent float64
	// RawPercent is unclamped so an exceeded goal stays detectable.
	RawPercent float64
	// Remaining may be negative when the goal is overshot.
	Remaining float64
	// DaysLeft goes negative once the target date has passed.
	DaysLeft int
}

// ProgressOfGoal derives progress figures for one goal relative to now.
func ProgressOfGoal(goal models.GoalPlan, now time.Time) GoalProgress {
	var raw float64
	if goal.TargetAmount > 0 {
		raw = goal.CurrentAmount / goal.TargetAmount * 100
	}

	var daysLeft int
	if target, err := time.Parse(models.DateLayout, goal.TargetDate); err == nil {
		daysLeft = int(math.Ceil(target.Sub(now).Hours() / 24))
	}

	return GoalProgress{
		Percent:    clamp(raw, 0, 100),
		RawPercent: raw,
		Remaining:  goal.TargetAmount - goal.CurrentAmount,
		DaysLeft:   daysLeft,
	}
}

// TotalSaved sums the current amounts across all goal plans.
func TotalSaved(goals []models.GoalPlan) float64 {
	var total float64
	for _, g := range goals {
		total += g.CurrentAmount
	}
	return total
}

// FundSummary aggregates all emergency funds into one total-versus-target
// figure.
type FundSummary struct {
	Current float64
	Target  float64
	// Percent is clamped to [0,100] for progress-bar rendering.
	Percent float64
}

// SummarizeFunds aggregates the emergency funds.
func SummarizeFunds(funds []models.EmergencyFund) FundSummary {
	var s FundSummary
	for _, f := range funds {
		s.Current += f.CurrentAmount
		s.Target += f.TargetAmount
	}
	if s.Target > 0 {
		s.Percent = clamp(s.Current/s.Target*100, 0, 100)
	}
	return s
}

// PortfolioValue sums all investment plan amounts.
func PortfolioValue(plans []models.InvestmentPlan) float64 {
	var total float64
	for _, p := range plans {
		total += p.Amount
	}
	return total
}

// Insights evaluates a fixed, ordered rule list and returns the text of every
// rule that fired. Rules are independent: all matches are emitted, not just
// the first. When nothing fires a single fallback message is returned.
func Insights(user models.User, txs []models.Transaction, budgetPlans []models.BudgetPlan, goalPlans []models.GoalPlan) []string {
	s := ComputeBalance(txs)
	var insights []string

	if s.Income > 0 {
		savingsRate := s.Balance / s.Income * 100
		switch {
		case savingsRate > 20:
			insights = append(insights, "Great job! You're saving more than 20% of your income.")
		case savingsRate > 10:
			insights = append(insights, "Good savings rate! Try to increase it to 20% for better financial health.")
		default:
			insights = append(insights, "Consider increasing your savings rate to at least 10% of your income.")
		}
	}

	if s.Expenses > s.Income {
		insights = append(insights, "Warning: Your expenses exceed your income. Review your spending habits.")
	}

	if user.Allowance > 0 && s.Expenses > user.Allowance {
		insights = append(insights, "You've exceeded your monthly allowance. Consider creating a budget plan.")
	}

	var overBudget int
	for _, plan := range budgetPlans {
		if plan.Spent > plan.Amount {
			overBudget++
		}
	}
	if overBudget > 0 {
		insights = append(insights, fmt.Sprintf("You've exceeded the budget for %d category(ies). Review your spending.", overBudget))
	}

	var nearTarget int
	for _, goal := range goalPlans {
		if goal.TargetAmount > 0 && goal.CurrentAmount/goal.TargetAmount*100 > 80 {
			nearTarget++
		}
	}
	if nearTarget > 0 {
		insights = append(insights, fmt.Sprintf("You're close to achieving %d goal(s)! Keep it up!", nearTarget))
	}

	if len(insights) == 0 {
		insights = append(insights, "Keep tracking your expenses to generate personalized insights.")
	}
	return insights
}

// ShouldWarn reports whether total expenses have crossed the user's warning
// threshold. A zero threshold disables the alert.
func ShouldWarn(warningAmount, expenses float64) bool {
	return warningAmount > 0 && expenses > warningAmount
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
