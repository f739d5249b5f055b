package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/bborn/wakeup/internal/config"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// initAnswers are the wizard's fields, kept as strings while editing.
type initAnswers struct {
	serverURL string
	prep      string
	sound     string
	mouse     bool
}

func newInitCmd(global *globalFlags) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Print(config.GenerateDefaultConfigYAML())
				return nil
			}
			return runInit(global.configPath)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print an annotated example config and exit")
	return cmd
}

func runInit(path string) error {
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		// A broken file is replaced, starting from defaults.
		cfg = config.Default()
	}

	if _, err := os.Stat(path); err == nil {
		overwrite := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s exists. Overwrite?", path)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		).WithTheme(huh.ThemeDracula()).Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(dimStyle.Render("Nothing written."))
			return nil
		}
	}

	a := initAnswers{
		serverURL: cfg.Client.ServerURL,
		prep:      strconv.Itoa(cfg.Client.DefaultPrep),
		sound:     cfg.Client.Sound,
		mouse:     cfg.Client.Mouse,
	}
	if a.sound == "" {
		a.sound = "tone"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("wakeupd URL").
				Value(&a.serverURL).
				Validate(validateServerURL),
			huh.NewInput().
				Title("Minutes to get ready").
				Description("Default for the getting-ready field").
				Value(&a.prep).
				Validate(validatePrep),
			huh.NewSelect[string]().
				Title("Alarm sound").
				Options(
					huh.NewOption("Generated tone", "tone"),
					huh.NewOption("Terminal bell", "bell"),
					huh.NewOption("Silent", "none"),
				).
				Value(&a.sound),
			huh.NewConfirm().
				Title("Enable mouse support?").
				Value(&a.mouse),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return err
	}

	if err := a.apply(cfg); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Wrote " + path))
	return nil
}

// apply copies the answers into cfg.
func (a initAnswers) apply(cfg *config.Config) error {
	if err := validateServerURL(a.serverURL); err != nil {
		return err
	}
	if err := validatePrep(a.prep); err != nil {
		return err
	}
	prep, _ := strconv.Atoi(strings.TrimSpace(a.prep))
	cfg.Client.ServerURL = strings.TrimRight(strings.TrimSpace(a.serverURL), "/")
	cfg.Client.DefaultPrep = prep
	cfg.Client.Sound = a.sound
	cfg.Client.Mouse = a.mouse
	return cfg.Validate()
}

func validateServerURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an http:// or https:// URL")
	}
	return nil
}

func validatePrep(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n >= 24*60 {
		return errors.New("enter whole minutes between 0 and 1439")
	}
	return nil
}
