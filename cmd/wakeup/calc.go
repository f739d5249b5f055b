package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bborn/wakeup/internal/alarm"
	"github.com/bborn/wakeup/internal/api"
	"github.com/bborn/wakeup/internal/config"
	"github.com/bborn/wakeup/internal/ui"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var timeNow = time.Now

type calcFlags struct {
	from   string
	to     string
	arrive string
	prep   int
	wait   bool
}

func newCalcCmd(global *globalFlags) *cobra.Command {
	var flags calcFlags

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate an alarm once, without the form",
		Long: `Calculate the wake-up time for a trip and print it.

Examples:
  wakeup calc --from "Home Street 1, Springfield" --to "Office Park, Springfield" --arrive 09:00
  wakeup calc --from Home --to Office --prep 45 --wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(*global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.from, "from", "", "Start location")
	cmd.Flags().StringVar(&flags.to, "to", "", "Destination")
	cmd.Flags().StringVar(&flags.arrive, "arrive", "", "Arrival time HH:MM (default: top of the next hour)")
	cmd.Flags().IntVar(&flags.prep, "prep", -1, "Minutes to get ready (default: from config)")
	cmd.Flags().BoolVar(&flags.wait, "wait", false, "Arm the alarm and wait for it to ring")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

// calcRequest fills defaults and validates the trip the same way the form does.
func calcRequest(flags calcFlags, defaultPrep int, now time.Time) (api.CalcRequest, error) {
	arrive := flags.arrive
	if arrive == "" {
		arrive = time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location()).Format("15:04")
	}
	prep := flags.prep
	if prep < 0 {
		prep = defaultPrep
	}
	form := ui.Form{
		Start:        flags.from,
		End:          flags.to,
		ArrivalTime:  arrive,
		GettingReady: strconv.Itoa(prep),
	}
	if err := ui.Validate(form); err != nil {
		return api.CalcRequest{}, err
	}
	return api.CalcRequest{
		Start:        strings.TrimSpace(form.Start),
		End:          strings.TrimSpace(form.End),
		ArrivalTime:  form.ArrivalTime,
		GettingReady: form.GettingReady,
	}, nil
}

func runCalc(global globalFlags, flags calcFlags) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "wakeup",
		ReportTimestamp: true,
		Level:           logLevel(global.debug),
	})

	req, err := calcRequest(flags, cfg.Client.DefaultPrep, timeNow())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client := api.NewClient(cfg.Client.ServerURL, api.WithLogger(logger))
	res, err := client.Calculate(ctx, req)
	var business *api.BusinessError
	switch {
	case errors.As(err, &business):
		return errors.New(business.Message)
	case errors.Is(err, api.ErrTimeout):
		return errors.New("request timed out; check your connection and try again")
	case err != nil:
		return fmt.Errorf("calculate alarm: %w", err)
	}

	out, err := renderResult(res, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		return err
	}
	fmt.Print(out)

	if !flags.wait {
		return nil
	}
	return waitForAlarm(ctx, res.AlarmTime, cfg, logger)
}

// resultMarkdown describes a calculation as a small markdown document.
func resultMarkdown(r *api.CalcResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Wake up at %s\n\n", r.AlarmTime)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Arrival | %s |\n", r.ArrivalTime)
	fmt.Fprintf(&b, "| Getting ready | %d min |\n", r.GettingReady)
	fmt.Fprintf(&b, "| Travel | %d min |\n", r.ETA)
	margin := fmt.Sprintf("%d min", r.Margin)
	if r.Weather != "" {
		margin += fmt.Sprintf(" (%s)", r.Weather)
	}
	fmt.Fprintf(&b, "| Safety margin | %s |\n", margin)
	if r.CurrentAlarm != "" {
		fmt.Fprintf(&b, "| Previous alarm | %s → %s |\n", r.CurrentAlarm, r.AlarmTime)
	}
	return b.String()
}

func renderResult(r *api.CalcResult, tty bool) (string, error) {
	style := "notty"
	if tty {
		style = "dark"
	}
	out, err := glamour.Render(resultMarkdown(r), style)
	if err != nil {
		return "", fmt.Errorf("render result: %w", err)
	}
	return out, nil
}

// waitForAlarm arms the alarm and blocks until it rings or ctx ends.
func waitForAlarm(ctx context.Context, hhmm string, cfg *config.Config, logger *log.Logger) error {
	database, opts, err := alarmDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	opts = append(opts,
		alarm.WithDialog(func(msg string) { blockingDialog(os.Stderr, os.Stdin, msg, interactive) }),
	)
	if interactive {
		opts = append(opts, alarm.WithPrompter(confirmNotifications))
	}
	trigger := alarm.NewTrigger(opts...)
	if _, err := trigger.Init(ctx); err != nil {
		logger.Warn("notification permission not decided", "err", err)
	}

	done := make(chan struct{})
	sched := alarm.NewScheduler()
	sc, ok, err := sched.Schedule(hhmm, func() {
		trigger.Fire(ctx)
		close(done)
	})
	if err != nil {
		return fmt.Errorf("schedule alarm: %w", err)
	}
	if !ok {
		return fmt.Errorf("alarm time %s is out of range", hhmm)
	}

	fmt.Fprintln(os.Stderr, successStyle.Render(fmt.Sprintf("Alarm set for %s (%s).",
		sc.At.Format("Mon 15:04"), ui.FormatCountdown(sc.At, timeNow())))+" "+dimStyle.Render("Ctrl+C cancels."))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		sched.Cancel()
		fmt.Fprintln(os.Stderr, dimStyle.Render("Alarm cancelled."))
		return nil
	}
}

func confirmNotifications(ctx context.Context) (bool, error) {
	allow := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow desktop notifications?").
				Description("Used to wake you when the alarm goes off.").
				Affirmative("Allow").
				Negative("Block").
				Value(&allow),
		),
	).WithTheme(huh.ThemeDracula()).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return allow, nil
}

// blockingDialog prints msg and, on a terminal, waits for Enter.
func blockingDialog(w io.Writer, r io.Reader, msg string, interactive bool) {
	fmt.Fprintln(w, boldStyle.Render(msg))
	if !interactive {
		return
	}
	fmt.Fprint(w, dimStyle.Render("Press Enter to dismiss"))
	bufio.NewReader(r).ReadString('\n')
}
