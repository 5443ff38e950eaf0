// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"time"

	"propfin/ledger-sync/internal/config"
	"propfin/ledger-sync/internal/container"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	From string
	To   string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "ledger-sync",
		Short: "A CLI tool to sync, categorize, push, and reconcile property-management transactions.",
		Long: `ledger-sync ingests transactions from property-management, banking, vendor-feed,
and accounting platforms into one canonical store, categorizes them, pushes
them to the primary ledger, and reconciles totals across platforms.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to ledger-sync!")
			Log.Info("Use --help to see available commands")
		},
	}

	// SharedFlags holds flag values common to multiple commands
	SharedFlags = CommonFlags{}

	// Specific sync command flags
	PlatformName string
	Recategorize bool

	// Specific push command flags
	IncludePushed bool

	// Specific reconcile command flags
	Format string

	// Specific classify and flows command flags
	Description    string
	Amount         string
	Vendor         string
	PropertyID     string
	NativeCategory string
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&SharedFlags.From, "from", "", "Start date (YYYY-MM-DD)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.To, "to", "", "End date, exclusive (YYYY-MM-DD)")
}

// BuildContainer loads the configuration and wires the application
// dependencies. Callers must Close the returned container.
func BuildContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return container.NewContainer(ctx, cfg)
}

// ParseDate parses a YYYY-MM-DD flag value.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// ParseRange parses the shared --from/--to flags. Both are required.
func ParseRange() (time.Time, time.Time, error) {
	if SharedFlags.From == "" || SharedFlags.To == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("both --from and --to are required")
	}
	from, err := ParseDate(SharedFlags.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate(SharedFlags.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}
	return from, to, nil
}
