// wakeup is the terminal client for the smart alarm.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bborn/wakeup/internal/alarm"
	"github.com/bborn/wakeup/internal/api"
	"github.com/bborn/wakeup/internal/config"
	"github.com/bborn/wakeup/internal/db"
	"github.com/bborn/wakeup/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "dev"

	// Styles for CLI output
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	serverURL  string
	debug      bool
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:     "wakeup",
		Short:   "Smart alarm that wakes you in time for your trip",
		Long:    "Works out when to get up from where you start, where you're going and when you need to be there.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(flags)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&flags.serverURL, "server", "", "wakeupd URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Verbose logging")

	rootCmd.AddCommand(newCalcCmd(&flags))
	rootCmd.AddCommand(newInitCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(flags globalFlags) (*config.Config, error) {
	cfg, err := config.LoadFromPath(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.serverURL != "" {
		cfg.Client.ServerURL = flags.serverURL
	}
	return cfg, nil
}

func logLevel(debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// alarmDeps builds the pieces every alarm trigger needs from config.
func alarmDeps(cfg *config.Config, logger *log.Logger) (*db.DB, []alarm.TriggerOption, error) {
	sound, err := alarm.NewSound(cfg.Client.Sound)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.Client.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return database, []alarm.TriggerOption{
		alarm.WithLogger(logger),
		alarm.WithSound(sound),
		alarm.WithNotifier(alarm.DBusNotifier{AppName: "wakeup"}),
		alarm.WithPermissions(alarm.NewSettingsPermissions(database)),
	}, nil
}

// formKeys builds the form's key map from the config's keybindings section,
// overridden by a standalone keybindings.yml next to the config file.
// A broken keybindings file is reported and skipped.
func formKeys(cfg *config.Config, configPath string) (ui.KeyMap, error) {
	file, err := config.LoadKeybindingsFromPath(config.KeybindingsPath(configPath))
	bindings := config.MergeKeybindings(cfg.Keybindings, file)
	return ui.ApplyKeybindingsConfig(ui.DefaultKeyMap(), bindings), err
}

// runForm runs the interactive form. The alarm only lives while it runs.
func runForm(flags globalFlags) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the form needs a terminal; use 'wakeup calc' in scripts")
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger, closeLog, err := ui.OpenLogger(ui.LogPath(), logLevel(flags.debug))
	if err != nil {
		return err
	}
	defer closeLog()

	database, alarmOpts, err := alarmDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	keys, err := formKeys(cfg, flags.configPath)
	if err != nil {
		logger.Warn("ignoring keybindings file", "err", err)
	}
	model := ui.NewFormModel(ui.Options{
		Backend:     api.NewClient(cfg.Client.ServerURL, api.WithLogger(logger)),
		Alarm:       alarmOpts,
		DefaultPrep: cfg.Client.DefaultPrep,
		Keys:        &keys,
		Logger:      logger,
	})
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Client.Mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}

	logger.Info("form started", "server", cfg.Client.ServerURL)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}

	if _, ok := model.Scheduled(); ok {
		fmt.Fprintln(os.Stderr, dimStyle.Render("Pending "+model.AlarmStatus(timeNow())+" cancelled. Use 'wakeup calc --wait' to keep an alarm without the form."))
	}
	return nil
}
