// Package app exposes the operations the presentation layer calls: account
// lifecycle, record creation and the read accessors for derived figures. It
// owns the in-memory state of the logged-in user and writes the full bundle
// through the persistence gateway after every mutation.
//
// Storage failures are not fatal: the mutation still applies in memory, a
// warning is logged, and the state simply will not survive a restart.
package app

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fined/internal/auth"
	"fined/internal/finance"
	"fined/internal/models"
	"fined/internal/session"
	"fined/internal/storage"
)

const minPasswordLength = 6

// App holds the application state for the single user.
type App struct {
	gateway  *storage.Gateway
	sessions *session.Manager
	log      zerolog.Logger

	bundle *models.Bundle
	now    func() time.Time
}

// New creates an App on top of the gateway.
func New(gateway *storage.Gateway, sessions *session.Manager, log zerolog.Logger) *App {
	return &App{
		gateway:  gateway,
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

// SignUp creates a new profile and logs it in. Signing up with an email that
// already has a profile fails with ErrDuplicateUser and leaves the stored
// bundle untouched.
func (a *App) SignUp(name, email, password string) error {
	var missing fieldErrors
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if err := missing.err(); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	exists, err := a.gateway.HasUser(email)
	if err != nil {
		a.log.Warn().Err(err).Msg("storage unavailable during signup check")
	}
	if exists {
		return ErrDuplicateUser
	}

	cred, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	a.bundle = models.NewBundle(name, email, cred)
	a.persist()

	if _, err := a.sessions.Create(email, "manual"); err != nil {
		a.log.Warn().Err(err).Msg("session not persisted")
	}
	return nil
}

// LogIn verifies the password and loads the user's data. Any mismatch, known
// email or not, yields the same ErrInvalidCredentials. A credential in a
// legacy format is upgraded to bcrypt after a successful verification.
func (a *App) LogIn(email, password string) error {
	var missing fieldErrors
	email = strings.TrimSpace(email)
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if err := missing.err(); err != nil {
		return err
	}

	bundle, ok, err := a.gateway.LoadBundle(email)
	if err != nil {
		a.log.Warn().Err(err).Msg("storage unavailable during login")
		return ErrInvalidCredentials
	}
	if !ok || !auth.CheckPassword(password, bundle.Password) {
		return ErrInvalidCredentials
	}

	a.bundle = bundle
	a.adoptLoadedBundle()

	if auth.NeedsRehash(bundle.Password) {
		if cred, err := auth.HashPassword(password); err == nil {
			a.bundle.Password = cred
			a.log.Info().Str("user", email).Msg("upgraded legacy credential")
		}
	}
	a.persist()

	if _, err := a.sessions.Create(email, "manual"); err != nil {
		a.log.Warn().Err(err).Msg("session not persisted")
	}
	return nil
}

// Resume restores the login from a persisted, unexpired session. It returns
// false when there is no usable session or the profile is gone.
func (a *App) Resume() bool {
	s, ok := a.sessions.Validate()
	if !ok {
		return false
	}

	bundle, ok, err := a.gateway.LoadBundle(s.UserID)
	if err != nil {
		a.log.Warn().Err(err).Msg("storage unavailable during resume")
		return false
	}
	if !ok {
		_ = a.sessions.Clear()
		return false
	}

	a.bundle = bundle
	a.adoptLoadedBundle()
	return true
}

// adoptLoadedBundle normalizes a freshly loaded bundle: the cached budget
// counters and derived balance figures are recomputed from the transaction
// log instead of trusted from disk.
func (a *App) adoptLoadedBundle() {
	finance.RebuildBudgetSpent(a.bundle.BudgetPlans, a.bundle.Transactions)
	a.refreshDerived()
}

// LogOut clears the session and drops the in-memory state.
func (a *App) LogOut() error {
	a.bundle = nil
	return a.sessions.Clear()
}

// LoggedIn reports whether a user is currently loaded.
func (a *App) LoggedIn() bool {
	return a.bundle != nil
}

// CurrentUser returns the profile of the logged-in user.
func (a *App) CurrentUser() (models.User, error) {
	if a.bundle == nil {
		return models.User{}, ErrNotLoggedIn
	}
	return a.bundle.User, nil
}

// SaveProfile updates the profile fields. Allowance and warning amount are
// optional; when present they must parse to a non-negative number.
func (a *App) SaveProfile(name, dateOfBirth, university, allowance, warningAmount string) error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	var missing fieldErrors
	allowanceVal := parseOptionalAmount("allowance", allowance, &missing)
	warningVal := parseOptionalAmount("warningAmount", warningAmount, &missing)
	if err := missing.err(); err != nil {
		return err
	}

	a.bundle.Name = strings.TrimSpace(name)
	a.bundle.DateOfBirth = dateOfBirth
	a.bundle.University = university
	a.bundle.Allowance = allowanceVal
	a.bundle.WarningAmount = warningVal
	a.persist()
	return nil
}

// DeleteProfile removes the stored bundle and every record it owns, clears
// the session and resets the in-memory state.
func (a *App) DeleteProfile() error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	email := a.bundle.Email
	if err := a.gateway.DeleteBundle(email); err != nil {
		return err
	}
	a.bundle = nil
	return a.sessions.Clear()
}

// AddExpense appends an expense transaction, updates matching budget plan
// counters and reports whether the spending warning fired.
func (a *App) AddExpense(amount, category, description, date string) (warned bool, err error) {
	if a.bundle == nil {
		return false, ErrNotLoggedIn
	}

	var missing fieldErrors
	amountVal := parseRequiredAmount("amount", amount, &missing)
	if category == "" {
		missing = append(missing, "category")
	}
	dateVal := parseRequiredDate("date", date, &missing)
	if err := missing.err(); err != nil {
		return false, err
	}

	a.bundle.Transactions = append(a.bundle.Transactions, models.Transaction{
		ID:          uuid.NewString(),
		Kind:        models.KindExpense,
		Amount:      amountVal,
		Category:    category,
		Description: description,
		Date:        dateVal,
		CreatedAt:   a.now(),
	})
	finance.ApplyExpenseToBudget(a.bundle.BudgetPlans, category, amountVal)
	a.refreshDerived()
	a.persist()

	warned = a.bundle.Settings.SpendingAlerts &&
		finance.ShouldWarn(a.bundle.WarningAmount, a.bundle.Expenses)
	return warned, nil
}

// AddIncome appends an income transaction.
func (a *App) AddIncome(amount, source, description, date string) error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	var missing fieldErrors
	amountVal := parseRequiredAmount("amount", amount, &missing)
	if source == "" {
		missing = append(missing, "source")
	}
	dateVal := parseRequiredDate("date", date, &missing)
	if err := missing.err(); err != nil {
		return err
	}

	a.bundle.Transactions = append(a.bundle.Transactions, models.Transaction{
		ID:          uuid.NewString(),
		Kind:        models.KindIncome,
		Amount:      amountVal,
		Source:      source,
		Description: description,
		Date:        dateVal,
		CreatedAt:   a.now(),
	})
	a.refreshDerived()
	a.persist()
	return nil
}

// AddBudgetPlan creates a budget plan. The spent counter starts from the
// matching expenses already in the log, consistent with the load-time
// rebuild.
func (a *App) AddBudgetPlan(name, category, amount, period, description string) error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	var missing fieldErrors
	amountVal := parseRequiredAmount("amount", amount, &missing)
	if name == "" {
		missing = append(missing, "name")
	}
	if category == "" {
		missing = append(missing, "category")
	}
	if period == "" {
		missing = append(missing, "period")
	}
	if err := missing.err(); err != nil {
		return err
	}

	plan := models.BudgetPlan{
		ID:          uuid.NewString(),
		Name:        name,
		Category:    category,
		Amount:      amountVal,
		Period:      period,
		Description: description,
		CreatedAt:   a.now(),
	}
	for _, t := range a.bundle.Transactions {
		if t.Kind == models.KindExpense && t.Category == category {
			plan.Spent += t.Amount
		}
	}

	a.bundle.BudgetPlans = append(a.bundle.BudgetPlans, plan)
	a.persist()
	return nil
}

// AddGoalPlan creates a goal plan. The current amount is optional and
// defaults to zero.
func (a *App) AddGoalPlan(name, targetAmount, currentAmount, targetDate, priority, description string) error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	var missing fieldErrors
	targetVal := parseRequiredAmount("targetAmount", targetAmount, &missing)
	currentVal := parseOptionalAmount("currentAmount", currentAmount, &missing)
	dateVal := parseRequiredDate("targetDate", targetDate, &missing)
	if name == "" {
		missing = append(missing, "name")
	}
	if !validPriority(priority) {
		missing = append(missing, "priority")
	}
	if err := missing.err(); err != nil {
		return err
	}

	a.bundle.GoalPlans = append(a.bundle.GoalPlans, models.GoalPlan{
		ID:            uuid.NewString(),
		Name:          name,
		TargetAmount:  targetVal,
		CurrentAmount: currentVal,
		TargetDate:    dateVal,
		Priority:      priority,
		Description:   description,
		CreatedAt:     a.now(),
	})
	a.persist()
	return nil
}

// AddToGoal adds funds to the goal with the given id and returns the updated
// goal.
func (a *App) AddToGoal(goalID, amount string) (models.GoalPlan, error) {
	if a.bundle == nil {
		return models.GoalPlan{}, ErrNotLoggedIn
	}

	var missing fieldErrors
	amountVal := parseRequiredAmount("amount", amount, &missing)
	if err := missing.err(); err != nil {
		return models.GoalPlan{}, err
	}

	for i := range a.bundle.GoalPlans {
		if a.bundle.GoalPlans[i].ID == goalID {
			a.bundle.GoalPlans[i].CurrentAmount += amountVal
			a.persist()
			return a.bundle.GoalPlans[i], nil
		}
	}
	return models.GoalPlan{}, ErrGoalNotFound
}

// AddEmergencyFund creates an emergency fund.
func (a *App) AddEmergencyFund(name, targetAmount, currentAmount, priority, description string) error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	var missing fieldErrors
	targetVal := parseRequiredAmount("targetAmount", targetAmount, &missing)
	currentVal := parseRequiredAmount("currentAmount", currentAmount, &missing)
	if name == "" {
		missing = append(missing, "name")
	}
	if !validPriority(priority) {
		missing = append(missing, "priority")
	}
	if err := missing.err(); err != nil {
		return err
	}

	a.bundle.EmergencyFunds = append(a.bundle.EmergencyFunds, models.EmergencyFund{
		ID:            uuid.NewString(),
		Name:          name,
		TargetAmount:  targetVal,
		CurrentAmount: currentVal,
		Priority:      priority,
		Description:   description,
		CreatedAt:     a.now(),
	})
	a.persist()
	return nil
}

// AddInvestmentPlan creates an investment plan. The goal text is optional.
func (a *App) AddInvestmentPlan(name, investmentType, amount, risk, goal string) error {
	if a.bundle == nil {
		return ErrNotLoggedIn
	}

	var missing fieldErrors
	amountVal := parseRequiredAmount("amount", amount, &missing)
	if name == "" {
		missing = append(missing, "name")
	}
	if investmentType == "" {
		missing = append(missing, "type")
	}
	if !validPriority(risk) {
		missing = append(missing, "risk")
	}
	if err := missing.err(); err != nil {
		return err
	}

	a.bundle.InvestmentPlans = append(a.bundle.InvestmentPlans, models.InvestmentPlan{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      investmentType,
		Amount:    amountVal,
		Risk:      risk,
		Goal:      goal,
		CreatedAt: a.now(),
	})
	a.persist()
	return nil
}

// refreshDerived recomputes the cached balance figures from the transaction
// log.
func (a *App) refreshDerived() {
	s := finance.ComputeBalance(a.bundle.Transactions)
	a.bundle.Income = s.Income
	a.bundle.Expenses = s.Expenses
	a.bundle.Balance = s.Balance
}

// persist writes the full bundle through the gateway. A failure is logged and
// otherwise ignored: the in-memory state stays usable for the rest of the
// session, it just is not guaranteed to survive a restart.
func (a *App) persist() {
	if err := a.gateway.SaveBundle(a.bundle.Email, a.bundle); err != nil {
		a.log.Warn().Err(err).Str("user", a.bundle.Email).Msg("bundle not persisted")
	}
}

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

// parseRequiredAmount parses a positive decimal, recording the field as
// invalid when absent, unparseable or not positive.
func parseRequiredAmount(field, raw string, missing *fieldErrors) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*missing = append(*missing, field)
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		*missing = append(*missing, field)
		return 0
	}
	return v
}

// parseOptionalAmount parses a non-negative decimal, treating an empty value
// as zero.
func parseOptionalAmount(field, raw string, missing *fieldErrors) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		*missing = append(*missing, field)
		return 0
	}
	return v
}

// parseRequiredDate validates a calendar date and returns it normalized.
func parseRequiredDate(field, raw string, missing *fieldErrors) string {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		*missing = append(*missing, field)
		return ""
	}
	return t.Format(models.DateLayout)
}

// Overview returns the balance summary for the logged-in user.
func (a *App) Overview() (finance.Summary, error) {
	if a.bundle == nil {
		return finance.Summary{}, ErrNotLoggedIn
	}
	return finance.ComputeBalance(a.bundle.Transactions), nil
}

// BudgetItem pairs a budget plan with its derived status.
type BudgetItem struct {
	Plan   models.BudgetPlan
	Status finance.BudgetStatus
}

// BudgetOverview is the budget page data: the monthly allowance ceiling, the
// headroom left in it, and every plan with its status.
type BudgetOverview struct {
	Allowance float64
	Remaining float64
	Plans     []BudgetItem
}

// Budgets returns the budget overview.
func (a *App) Budgets() (BudgetOverview, error) {
	if a.bundle == nil {
		return BudgetOverview{}, ErrNotLoggedIn
	}

	o := BudgetOverview{
		Allowance: a.bundle.Allowance,
		Remaining: a.bundle.Allowance - a.bundle.Expenses,
		Plans:     make([]BudgetItem, 0, len(a.bundle.BudgetPlans)),
	}
	for _, plan := range a.bundle.BudgetPlans {
		o.Plans = append(o.Plans, BudgetItem{Plan: plan, Status: finance.StatusOfBudget(plan)})
	}
	return o, nil
}

// GoalItem pairs a goal plan with its derived progress.
type GoalItem struct {
	Plan     models.GoalPlan
	Progress finance.GoalProgress
}

// GoalsOverview is the goals page data.
type GoalsOverview struct {
	Active     int
	TotalSaved float64
	Goals      []GoalItem
}

// Goals returns the goals overview.
func (a *App) Goals() (GoalsOverview, error) {
	if a.bundle == nil {
		return GoalsOverview{}, ErrNotLoggedIn
	}

	now := a.now()
	o := GoalsOverview{
		Active:     len(a.bundle.GoalPlans),
		TotalSaved: finance.TotalSaved(a.bundle.GoalPlans),
		Goals:      make([]GoalItem, 0, len(a.bundle.GoalPlans)),
	}
	for _, goal := range a.bundle.GoalPlans {
		o.Goals = append(o.Goals, GoalItem{Plan: goal, Progress: finance.ProgressOfGoal(goal, now)})
	}
	return o, nil
}

// FundOverview is the emergency fund page data.
type FundOverview struct {
	Summary finance.FundSummary
	Funds   []models.EmergencyFund
}

// EmergencyFunds returns the aggregated emergency fund overview.
func (a *App) EmergencyFunds() (FundOverview, error) {
	if a.bundle == nil {
		return FundOverview{}, ErrNotLoggedIn
	}
	return FundOverview{
		Summary: finance.SummarizeFunds(a.bundle.EmergencyFunds),
		Funds:   a.bundle.EmergencyFunds,
	}, nil
}

// PortfolioOverview is the investment page data.
type PortfolioOverview struct {
	Value float64
	Plans []models.InvestmentPlan
}

// Portfolio returns the investment overview.
func (a *App) Portfolio() (PortfolioOverview, error) {
	if a.bundle == nil {
		return PortfolioOverview{}, ErrNotLoggedIn
	}
	return PortfolioOverview{
		Value: finance.PortfolioValue(a.bundle.InvestmentPlans),
		Plans: a.bundle.InvestmentPlans,
	}, nil
}

// Insights returns the generated insight messages.
func (a *App) Insights() ([]string, error) {
	if a.bundle == nil {
		return nil, ErrNotLoggedIn
	}
	return finance.Insights(a.bundle.User, a.bundle.Transactions, a.bundle.BudgetPlans, a.bundle.GoalPlans), nil
}

// RecentTransactions returns up to n transactions, newest first.
func (a *App) RecentTransactions(n int) ([]models.Transaction, error) {
	if a.bundle == nil {
		return nil, ErrNotLoggedIn
	}

	txs := make([]models.Transaction, len(a.bundle.Transactions))
	copy(txs, a.bundle.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	if n > 0 && len(txs) > n {
		txs = txs[:n]
	}
	return txs, nil
}

// Language returns the saved language preference.
func (a *App) Language() string {
	return a.gateway.Language()
}

// SetLanguage saves the language preference. Codes are two lowercase letters.
func (a *App) SetLanguage(code string) error {
	if len(code) != 2 {
		return &ValidationError{Fields: []string{"language"}}
	}
	for _, c := range code {
		if c < 'a' || c > 'z' {
			return &ValidationError{Fields: []string{"language"}}
		}
	}
	return a.gateway.SetLanguage(code)
}
