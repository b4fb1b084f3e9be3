// Command fined is a terminal client for the FinEd personal-finance tracker.
// It is a thin presentation layer: every command parses flags, calls one
// operation on the app core and prints the result.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"fined/internal/app"
	"fined/internal/config"
	"fined/internal/models"
	"fined/internal/session"
	"fined/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

const usageText = `Usage: fined <command> [flags]

Commands:
  signup          create a profile and log in
  login           log in to an existing profile
  logout          end the current session
  profile         update profile fields
  delete-profile  delete the profile and all its records
  expense         record an expense
  income          record income
  budget          list budget plans; "budget add" creates one
  goal            list goals; "goal add" creates one, "goal fund" adds money
  emergency       list emergency funds; "emergency add" creates one
  invest          list investments; "invest add" creates one
  overview        show balance, income and expenses
  insights        show financial insights
  recent          show recent transactions
  lang            show or set the display language
`

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usageText)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	gateway := storage.NewGateway(store)
	defer gateway.Close()

	a := app.New(gateway, session.NewManager(gateway), logger)

	cmd, rest := args[0], args[1:]
	c := &cli{app: a, stdin: stdin, stdout: stdout, stderr: stderr}

	switch cmd {
	case "signup":
		return c.signup(rest)
	case "login":
		return c.login(rest)
	case "logout":
		return a.LogOut()
	case "profile":
		return c.profile(rest)
	case "delete-profile":
		return c.deleteProfile(rest)
	case "expense":
		return c.expense(rest)
	case "income":
		return c.income(rest)
	case "budget":
		return c.budget(rest)
	case "goal":
		return c.goal(rest)
	case "emergency":
		return c.emergency(rest)
	case "invest":
		return c.invest(rest)
	case "overview":
		return c.overview()
	case "insights":
		return c.insights()
	case "recent":
		return c.recent(rest)
	case "lang":
		return c.lang(rest)
	default:
		fmt.Fprint(stdout, usageText)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		return storage.NewBadgerStore(cfg.Storage.Path)
	case config.BackendSQLite:
		return storage.NewSQLiteStore(cfg.Storage.Path)
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

type cli struct {
	app    *app.App
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// requireLogin restores the session from storage before a command that needs
// an authenticated user.
func (c *cli) requireLogin() error {
	if c.app.LoggedIn() || c.app.Resume() {
		return nil
	}
	return fmt.Errorf("not logged in; run \"fined login\" first")
}

func (c *cli) signup(args []string) error {
	fs := c.flags("signup")
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := c.password(*passwordFlag)
	if err != nil {
		return err
	}
	if err := c.app.SignUp(*name, *email, password); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Profile created for %s\n", *email)
	return nil
}

func (c *cli) login(args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := c.password(*passwordFlag)
	if err != nil {
		return err
	}
	if err := c.app.LogIn(*email, password); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Logged in as %s\n", *email)
	return nil
}

func (c *cli) profile(args []string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	user, err := c.app.CurrentUser()
	if err != nil {
		return err
	}

	fs := c.flags("profile")
	name := fs.String("name", user.Name, "Full name")
	dob := fs.String("dob", user.DateOfBirth, "Date of birth (YYYY-MM-DD)")
	university := fs.String("university", user.University, "University")
	allowance := fs.String("allowance", fmt.Sprintf("%g", user.Allowance), "Monthly allowance")
	warning := fs.String("warning", fmt.Sprintf("%g", user.WarningAmount), "Expense warning threshold")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.app.SaveProfile(*name, *dob, *university, *allowance, *warning); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Profile saved")
	return nil
}

func (c *cli) deleteProfile(args []string) error {
	fs := c.flags("delete-profile")
	yes := fs.Bool("yes", false, "Confirm deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("deleting a profile removes all its records; rerun with -yes to confirm")
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	if err := c.app.DeleteProfile(); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Profile deleted")
	return nil
}

func (c *cli) expense(args []string) error {
	fs := c.flags("expense")
	amount := fs.String("amount", "", "Amount")
	category := fs.String("category", "", "Category")
	description := fs.String("description", "", "Description")
	date := fs.String("date", time.Now().Format(models.DateLayout), "Date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.requireLogin(); err != nil {
		return err
	}

	warned, err := c.app.AddExpense(*amount, *category, *description, *date)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Expense added")
	if warned {
		fmt.Fprintln(c.stdout, "Warning: your expenses have exceeded your warning amount")
	}
	return nil
}

func (c *cli) income(args []string) error {
	fs := c.flags("income")
	amount := fs.String("amount", "", "Amount")
	source := fs.String("source", "", "Source")
	description := fs.String("description", "", "Description")
	date := fs.String("date", time.Now().Format(models.DateLayout), "Date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.requireLogin(); err != nil {
		return err
	}

	if err := c.app.AddIncome(*amount, *source, *description, *date); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Income added")
	return nil
}

func (c *cli) budget(args []string) error {
	if len(args) > 0 && args[0] == "add" {
		fs := c.flags("budget add")
		name := fs.String("name", "", "Plan name")
		category := fs.String("category", "", "Expense category")
		amount := fs.String("amount", "", "Budget ceiling")
		period := fs.String("period", "monthly", "Time period label")
		description := fs.String("description", "", "Description")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := c.app.AddBudgetPlan(*name, *category, *amount, *period, *description); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Budget plan created")
		return nil
	}

	if err := c.requireLogin(); err != nil {
		return err
	}
	o, err := c.app.Budgets()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Monthly allowance: %.2f (remaining %.2f)\n", o.Allowance, o.Remaining)
	if len(o.Plans) == 0 {
		fmt.Fprintln(c.stdout, "No budget plans set yet")
		return nil
	}
	for _, item := range o.Plans {
		fmt.Fprintf(c.stdout, "%-20s %-12s %8.2f / %8.2f  remaining %8.2f  [%s]\n",
			item.Plan.Name, item.Plan.Category, item.Plan.Spent, item.Plan.Amount,
			item.Status.Remaining, item.Status.Status)
	}
	return nil
}

func (c *cli) goal(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			fs := c.flags("goal add")
			name := fs.String("name", "", "Goal name")
			target := fs.String("target", "", "Target amount")
			current := fs.String("current", "", "Current amount (optional)")
			date := fs.String("date", "", "Target date (YYYY-MM-DD)")
			priority := fs.String("priority", models.PriorityMedium, "Priority: low, medium or high")
			description := fs.String("description", "", "Description")
			if err := fs.Parse(args[1:]); err != nil {
				return err
			}
			if err := c.requireLogin(); err != nil {
				return err
			}
			if err := c.app.AddGoalPlan(*name, *target, *current, *date, *priority, *description); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "Goal plan created")
			return nil
		case "fund":
			fs := c.flags("goal fund")
			id := fs.String("id", "", "Goal id")
			amount := fs.String("amount", "", "Amount to add")
			if err := fs.Parse(args[1:]); err != nil {
				return err
			}
			if err := c.requireLogin(); err != nil {
				return err
			}
			goal, err := c.app.AddToGoal(*id, *amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Added %s to %s (now %.2f / %.2f)\n",
				*amount, goal.Name, goal.CurrentAmount, goal.TargetAmount)
			return nil
		}
	}

	if err := c.requireLogin(); err != nil {
		return err
	}
	o, err := c.app.Goals()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%d active goal(s), %.2f saved\n", o.Active, o.TotalSaved)
	if len(o.Goals) == 0 {
		fmt.Fprintln(c.stdout, "No goals set yet")
		return nil
	}
	for _, item := range o.Goals {
		fmt.Fprintf(c.stdout, "%s  %-20s %8.2f / %8.2f  %5.1f%%  %d days left  [%s]\n",
			item.Plan.ID, item.Plan.Name, item.Plan.CurrentAmount, item.Plan.TargetAmount,
			item.Progress.Percent, item.Progress.DaysLeft, item.Plan.Priority)
	}
	return nil
}

func (c *cli) emergency(args []string) error {
	if len(args) > 0 && args[0] == "add" {
		fs := c.flags("emergency add")
		name := fs.String("name", "", "Fund name")
		target := fs.String("target", "", "Target amount")
		current := fs.String("current", "", "Current amount")
		priority := fs.String("priority", models.PriorityMedium, "Priority: low, medium or high")
		description := fs.String("description", "", "Description")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := c.app.AddEmergencyFund(*name, *target, *current, *priority, *description); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Emergency fund created")
		return nil
	}

	if err := c.requireLogin(); err != nil {
		return err
	}
	o, err := c.app.EmergencyFunds()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Emergency funds: %.2f / %.2f (%.0f%%)\n",
		o.Summary.Current, o.Summary.Target, o.Summary.Percent)
	for _, f := range o.Funds {
		fmt.Fprintf(c.stdout, "%-20s %8.2f / %8.2f  [%s]\n",
			f.Name, f.CurrentAmount, f.TargetAmount, f.Priority)
	}
	return nil
}

func (c *cli) invest(args []string) error {
	if len(args) > 0 && args[0] == "add" {
		fs := c.flags("invest add")
		name := fs.String("name", "", "Investment name")
		investType := fs.String("type", "", "Investment type")
		amount := fs.String("amount", "", "Amount")
		risk := fs.String("risk", models.PriorityMedium, "Risk: low, medium or high")
		goal := fs.String("goal", "", "Investment goal")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := c.app.AddInvestmentPlan(*name, *investType, *amount, *risk, *goal); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Investment plan created")
		return nil
	}

	if err := c.requireLogin(); err != nil {
		return err
	}
	o, err := c.app.Portfolio()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Portfolio value: %.2f\n", o.Value)
	for _, p := range o.Plans {
		fmt.Fprintf(c.stdout, "%-20s %-12s %8.2f  [%s risk]\n", p.Name, p.Type, p.Amount, p.Risk)
	}
	return nil
}

func (c *cli) overview() error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	s, err := c.app.Overview()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Balance:  %.2f\nIncome:   %.2f\nExpenses: %.2f\n",
		s.Balance, s.Income, s.Expenses)
	return nil
}

func (c *cli) insights() error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	insights, err := c.app.Insights()
	if err != nil {
		return err
	}
	for _, line := range insights {
		fmt.Fprintf(c.stdout, "- %s\n", line)
	}
	return nil
}

func (c *cli) recent(args []string) error {
	fs := c.flags("recent")
	n := fs.Int("n", 10, "Number of transactions to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.requireLogin(); err != nil {
		return err
	}

	txs, err := c.app.RecentTransactions(*n)
	if err != nil {
		return err
	}
	for _, t := range txs {
		label := t.Category
		if t.Kind == models.KindIncome {
			label = t.Source
		}
		fmt.Fprintf(c.stdout, "%s  %-7s %8.2f  %-12s %s\n", t.Date, t.Kind, t.Amount, label, t.Description)
	}
	return nil
}

func (c *cli) lang(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.stdout, c.app.Language())
		return nil
	}
	if err := c.app.SetLanguage(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Language set to %s\n", args[0])
	return nil
}

// password returns the flag value if given, otherwise prompts for it.
func (c *cli) password(fromFlag string) (string, error) {
	if fromFlag != "" {
		return fromFlag, nil
	}
	fmt.Fprint(c.stdout, "Password: ")
	password, err := readPassword(c.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(c.stdout)
	return password, nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
