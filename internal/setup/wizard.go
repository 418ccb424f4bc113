package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/willowtrack/healthrelay/internal/config"
	"github.com/willowtrack/healthrelay/internal/model"
	"github.com/willowtrack/healthrelay/internal/provider"
)

// Wizard guides the user through first-run configuration.
type Wizard struct {
	prompt *Prompter
	logger *slog.Logger
	w      io.Writer
}

// NewWizard creates a Wizard wired to the given I/O and logger.
func NewWizard(r io.Reader, w io.Writer, logger *slog.Logger) *Wizard {
	return &Wizard{
		prompt: NewPrompter(r, w),
		logger: logger,
		w:      w,
	}
}

// sourceOptions pairs the selectable provider sources with display labels.
var sourceOptions = []struct {
	label  string
	source model.Source
}{
	{"Google Health", model.SourceGoogleHealth},
	{"Samsung Health", model.SourceSamsungHealth},
	{"Garmin", model.SourceGarmin},
}

// Run executes the interactive setup wizard. It walks the user through the
// provider connection, permission check, sync settings, and config file
// creation.
func (wiz *Wizard) Run(ctx context.Context) error {
	fmt.Fprintf(wiz.w, "\nWelcome to HealthRelay Setup!\n")
	fmt.Fprintf(wiz.w, "This wizard will connect HealthRelay to your health-data provider.\n\n")

	// Check for existing config.
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	if _, statErr := os.Stat(cfgPath); statErr == nil {
		fmt.Fprintf(wiz.w, "  Existing config found at %s\n", cfgPath)
		if !wiz.prompt.Confirm("Overwrite existing configuration?", false) {
			fmt.Fprintf(wiz.w, "\n  Keeping existing config.\n")
			return nil
		}
		fmt.Fprintf(wiz.w, "\n")
	}

	// Step 1: Provider connection.
	fmt.Fprintf(wiz.w, "Step 1/3 — Provider Connection\n")

	labels := make([]string, len(sourceOptions))
	for i, o := range sourceOptions {
		labels[i] = o.label
	}
	idx, err := wiz.prompt.Select("Health-data provider", labels)
	if err != nil {
		return fmt.Errorf("selecting provider: %w", err)
	}
	source := sourceOptions[idx].source

	providerURL := wiz.prompt.String("Provider bridge URL", "https://localhost:8443")
	providerToken := wiz.prompt.Secret("Access token")

	fmt.Fprintf(wiz.w, "  Connecting to provider...")
	if err := PingProvider(ctx, providerURL, providerToken); err != nil {
		fmt.Fprintf(wiz.w, " ✗\n")
		return fmt.Errorf("cannot reach provider: %w\n\n  Check the URL and token, then try again", err)
	}
	fmt.Fprintf(wiz.w, " ✓\n\n")

	// Step 2: Permission check.
	fmt.Fprintf(wiz.w, "Step 2/3 — Permissions\n")

	adapter := provider.NewAdapter(providerURL, providerToken, source, wiz.logger)
	missing, err := adapter.MissingPermissions(ctx)
	switch {
	case err != nil:
		wiz.logger.Warn("could not check provider permissions", "error", err)
		fmt.Fprintf(wiz.w, "  ⚠ Could not check permissions — sync will fail until they are granted.\n\n")
	case len(missing) > 0:
		fmt.Fprintf(wiz.w, "  ⚠ Missing permissions:\n")
		for _, p := range missing {
			fmt.Fprintf(wiz.w, "    • %s\n", p)
		}
		fmt.Fprintf(wiz.w, "  Grant them in the provider's settings, then run a sync.\n\n")
	default:
		fmt.Fprintf(wiz.w, "  ✓ All permissions granted\n\n")
	}

	// Step 3: Sync settings and save.
	fmt.Fprintf(wiz.w, "Step 3/3 — Sync Settings\n")

	pollStr := wiz.prompt.String("How often should the daemon sync? (1m–24h)", "15m")
	pollInterval, parseErr := time.ParseDuration(pollStr)
	if parseErr != nil {
		pollInterval = 15 * time.Minute
		fmt.Fprintf(wiz.w, "  (invalid duration, using default 15m)\n")
	}

	cfg := &config.Config{
		ProviderURL:    providerURL,
		ProviderToken:  providerToken,
		ProviderSource: string(source),
		PollInterval:   pollInterval,
	}

	if err := cfg.Write(cfgPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(wiz.w, "  ✓ Config written to %s\n", cfgPath)

	fmt.Fprintf(wiz.w, "\nSetup complete!\n")
	fmt.Fprintf(wiz.w, "  Run once:          healthrelay sync\n")
	fmt.Fprintf(wiz.w, "  Run continuously:  healthrelay daemon\n")
	fmt.Fprintf(wiz.w, "  Log an entry:      healthrelay log sleep --bed 22:30 --wake 06:30\n\n")

	return nil
}
