package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	interview "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/remote"
	"github.com/koscakluka/ema-interview/internal/config"
	"github.com/koscakluka/ema-interview/internal/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a spoken mock interview",
	Long: `Start an interview for one of your uploaded resumes. Without --resume the
resumes on your account are listed to pick from.`,
	Args: cobra.NoArgs,
	RunE: runInterview,
}

var (
	resumeFlag   string
	backendFlag  string
	durationFlag time.Duration
	noSpeechFlag bool
	exportFlag   string
)

func init() {
	runCmd.Flags().StringVar(&resumeFlag, "resume", "", "ID of the resume to interview for")
	runCmd.Flags().StringVar(&backendFlag, "backend", "", "Audio backend: miniaudio, portaudio or none")
	runCmd.Flags().DurationVar(&durationFlag, "duration", 0, "Session length (default from config)")
	runCmd.Flags().BoolVar(&noSpeechFlag, "no-speech", false, "Disable voice input and output")
	runCmd.Flags().StringVar(&exportFlag, "export", "", "Write the transcript and report as JSON to this path")
}

func runInterview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		cfg.Audio.Backend = backendFlag
	}
	if cmd.Flags().Changed("duration") {
		cfg.Session.Duration = durationFlag
	}
	if noSpeechFlag {
		cfg.Speech.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := newRemoteClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	speech, closeSpeech := speechOptions(cfg)
	defer closeSpeech()

	bridge := tui.NewEventBridge(tui.DefaultBridgeBuffer)
	opts := append([]interview.ControllerOption{
		interview.WithEventHandler(bridge.Handle),
		interview.WithSessionDuration(cfg.Session.Duration),
		interview.WithRestartDelay(cfg.Session.RestartDelay),
		interview.WithMaxConsecutiveRestarts(cfg.Session.MaxRestarts),
		interview.WithQuestionDelay(cfg.Session.QuestionDelay),
		interview.WithFetchRetry(cfg.Session.FetchAttempts, cfg.Session.FetchRetryDelay),
	}, speech...)
	controller := interview.NewController(client, opts...)
	defer controller.Close()

	program := tea.NewProgram(tui.New(ctx, controller, bridge, resumeFlag), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running interview view: %w", err)
	}
	endOnExit(controller)

	if exportFlag != "" {
		if err := writeExport(exportFlag, newTranscriptExport(controller)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s\n", exportFlag)
	}
	if report, ok := controller.Report(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Final score: %d (%d questions, %d min)\n",
			report.TotalScore, report.TotalQuestionsAsked, report.DurationMinutes)
	}
	return nil
}

func newRemoteClient(cfg *config.Config) (*remote.Client, error) {
	return remote.NewClient(cfg.API.BaseURL,
		remote.WithToken(cfg.API.Token),
		remote.WithTimeout(cfg.API.Timeout),
	)
}

// endOnExit completes a session still running when the view is closed, so
// the remote side does not keep it open.
func endOnExit(controller *interview.Controller) {
	if controller.State() == interview.StateCompleted || controller.Session().ID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), remote.DefaultTimeout)
	defer cancel()
	if err := controller.ForceComplete(ctx, interview.ReasonUser); err != nil {
		logger.Warn("failed to end the interview on exit", "error", err)
	}
}
