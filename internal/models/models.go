package models

import "time"

// DateLayout is the calendar-date format used for transaction dates and goal
// target dates.
const DateLayout = "2006-01-02"

// Transaction kinds.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Priority and risk levels shared by goal plans, emergency funds and
// investment plans.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// User holds the profile fields of the single account owner. Balance, Income
// and Expenses are derived figures: they are written out for compatibility but
// always recomputed from the transaction log before display.
type User struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	DateOfBirth   string     `json:"dateOfBirth"`
	University    string     `json:"university"`
	Allowance     float64    `json:"allowance"`
	WarningAmount float64    `json:"warningAmount"`
	Password      Credential `json:"password"`
	Balance       float64    `json:"balance"`
	Income        float64    `json:"income"`
	Expenses      float64    `json:"expenses"`
}

// Transaction is a single income or expense record. Transactions are
// append-only: once created they are never edited, only removed wholesale
// when the owning profile is deleted.
type Transaction struct {
	ID          string    `json:"id"`
	Kind        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"timestamp"`
}

// BudgetPlan tracks spending against a ceiling for one expense category.
// Spent is a cached running total; it is rebuilt from the transaction log on
// load rather than trusted from disk.
type BudgetPlan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Period      string    `json:"period"`
	Spent       float64   `json:"spent"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GoalPlan is a savings target with a deadline.
type GoalPlan struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetAmount  float64   `json:"targetAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	TargetDate    string    `json:"targetDate"`
	Priority      string    `json:"priority"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EmergencyFund is a rainy-day reserve. All funds are aggregated into a single
// total-versus-target figure for display.
type EmergencyFund struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetAmount  float64   `json:"targetAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	Priority      string    `json:"priority"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

// InvestmentPlan records a single investment position.
type InvestmentPlan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Risk      string    `json:"risk"`
	Goal      string    `json:"goal"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settings holds per-user preferences.
type Settings struct {
	SpendingAlerts bool `json:"spendingAlerts"`
}

// DefaultSettings returns the settings applied to a new profile.
func DefaultSettings() Settings {
	return Settings{SpendingAlerts: true}
}

// Session is the single persisted session record.
type Session struct {
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	AuthMethod string    `json:"authMethod"`
}

// Bundle is everything persisted for one user under a single storage key.
// The field names match the layout written by earlier versions of the app so
// existing data keeps loading. Goals, Budgets, Alarms and AlertHistory are
// reserved fields: they are round-tripped untouched and never interpreted.
type Bundle struct {
	User
	Transactions    []Transaction        `json:"transactions"`
	EmergencyFunds  []EmergencyFund      `json:"emergencyFunds"`
	InvestmentPlans []InvestmentPlan     `json:"investmentPlans"`
	Goals           []RawRecord          `json:"goals"`
	Budgets         map[string]RawRecord `json:"budgets"`
	BudgetPlans     []BudgetPlan         `json:"budgetPlans"`
	GoalPlans       []GoalPlan           `json:"goalPlans"`
	Alarms          []RawRecord          `json:"alarms"`
	AlertHistory    []RawRecord          `json:"alertHistory"`
	Settings        Settings             `json:"settings"`
}

// RawRecord preserves unrecognized persisted values byte for byte.
type RawRecord []byte

// MarshalJSON writes the raw bytes unchanged.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps the raw bytes unchanged.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// NewBundle creates an empty bundle for a freshly signed-up user. Collection
// fields are allocated so the serialized form contains empty arrays rather
// than nulls.
func NewBundle(name, email string, password Credential) *Bundle {
	return &Bundle{
		User: User{
			Name:     name,
			Email:    email,
			Password: password,
		},
		Transactions:    []Transaction{},
		EmergencyFunds:  []EmergencyFund{},
		InvestmentPlans: []InvestmentPlan{},
		Goals:           []RawRecord{},
		Budgets:         map[string]RawRecord{},
		BudgetPlans:     []BudgetPlan{},
		GoalPlans:       []GoalPlan{},
		Alarms:          []RawRecord{},
		AlertHistory:    []RawRecord{},
		Settings:        DefaultSettings(),
	}
}
