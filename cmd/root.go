package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/pkg/config"
	"repodoc/pkg/workflow"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "repodoc <repository>",
	Short: "repodoc generates a requirements document from a source repository",
	Long: `repodoc feeds a repository's source files to a language model in
token-bounded batches and incrementally folds each batch's findings into a
single requirements document.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command; a non-nil error means the run failed and
// the process should exit non-zero.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		for _, ve := range validationErrors {
			color.Red("config error: %s", ve.Error())
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(validationErrors))
	}

	wf, err := workflow.New(cfg, logger)
	if err != nil {
		return err
	}

	repoPath := args[0]
	color.Blue("\nGenerating requirements document for %s\n", repoPath)

	var bar *progressbar.ProgressBar
	wf.OnChunk = func(completed, total int) {
		if bar == nil {
			bar = getProgressBar(total, "Folding chunks into document...")
		}
		bar.Set(completed)
	}

	state, runErr := wf.Run(cmd.Context(), repoPath)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	printSummary(state)
	return runErr
}

func printSummary(state *models.WorkflowState) {
	if state.Status == models.StatusCompleted {
		color.Green("✓ Completed: %d files, %d chunks, %d prompt + %d completion tokens in %s",
			state.Stats.FilteredFiles,
			state.Stats.ProcessedChunks,
			state.Stats.Usage.PromptTokens,
			state.Stats.Usage.CompletionTokens,
			state.Stats.Duration.Round(time.Millisecond))
	} else {
		color.Red("✗ Failed after %d/%d chunks: %s",
			state.Stats.ProcessedChunks,
			state.Stats.TotalChunks,
			state.Error)
		if state.CurrentDocument != "" {
			color.Yellow("The partial document from the last successful chunk was preserved.")
		}
	}

	for _, warning := range state.Warnings {
		color.Yellow("warning: %s", warning)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]interface{}{
		"appName": "repodoc",
	}
	return cfg.Build()
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
