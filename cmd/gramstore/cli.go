package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/gramstore"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gramstore",
		Short: "Train an n-gram model on text and generate from it",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	cobra.EnableCommandSorting = false

	runCmd := &cobra.Command{
		Use:   "run [flags] NAME...",
		Short: "Train on corpus objects, then generate from a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHandler,
	}
	runCmd.Flags().StringP("prompt", "p", "", "Generation prompt")
	runCmd.Flags().Uint64("seed", 0, "Random seed for reproducible output (0 = random)")
	runCmd.Flags().Int("max-chars", 10_000, "Maximum characters of output, prompt included")
	runCmd.Flags().Duration("pacing", gramstore.DefaultPacing, "Delay between emitted tokens")
	runCmd.Flags().Bool("candidates", false, "Print the candidates of every emitted token")
	runCmd.Flags().Bool("stats", false, "Print tier topology after training")
	_ = runCmd.MarkFlagRequired("prompt")

	statsCmd := &cobra.Command{
		Use:   "stats [flags] NAME...",
		Short: "Train on corpus objects and print tier topology",
		Args:  cobra.MinimumNArgs(1),
		RunE:  statsHandler,
	}

	listCmd := &cobra.Command{
		Use:     "list [PREFIX]",
		Aliases: []string{"ls"},
		Short:   "List corpus objects",
		Args:    cobra.MaximumNArgs(1),
		RunE:    listHandler,
	}

	for _, cmd := range []*cobra.Command{runCmd, statsCmd} {
		addModelFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{runCmd, statsCmd, listCmd} {
		addSourceFlags(cmd)
	}

	rootCmd.AddCommand(runCmd, statsCmd, listCmd)
	return rootCmd
}

func addModelFlags(cmd *cobra.Command) {
	def := gramstore.DefaultConfig()
	cmd.Flags().Int("min-order", def.MinOrder, "Smallest n-gram order")
	cmd.Flags().Int("max-order", def.MaxOrder, "Largest n-gram order")
	cmd.Flags().Int("hot-capacity", def.HotCapacity, "Records per hot table")
	cmd.Flags().Int("cold-capacity", def.ColdCapacity, "Records per cold table")
	cmd.Flags().Int("token-width", def.TokenWidth, "Characters per token")
	cmd.Flags().Int64("memory-limit", 0, "Maximum bytes for table buffers (0 = unlimited)")
	cmd.Flags().Int("workers", 4, "Concurrent corpus reads and tier flushes")
	cmd.Flags().Duration("slice", 50*time.Millisecond, "Training time slice")
	cmd.Flags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")
}

func modelFromFlags(cmd *cobra.Command, extra ...gramstore.Option) (*gramstore.Model, error) {
	var cfg gramstore.Config
	var err error
	for name, dst := range map[string]*int{
		"min-order":     &cfg.MinOrder,
		"max-order":     &cfg.MaxOrder,
		"hot-capacity":  &cfg.HotCapacity,
		"cold-capacity": &cfg.ColdCapacity,
		"token-width":   &cfg.TokenWidth,
	} {
		if *dst, err = cmd.Flags().GetInt(name); err != nil {
			return nil, err
		}
	}

	memLimit, err := cmd.Flags().GetInt64("memory-limit")
	if err != nil {
		return nil, err
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}
	slice, err := cmd.Flags().GetDuration("slice")
	if err != nil {
		return nil, err
	}
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, err
	}

	logger := gramstore.NewLogger(newLogHandler(cmd.ErrOrStderr(), level, logJSON))

	opts := []gramstore.Option{
		gramstore.WithLogger(logger),
		gramstore.WithMemoryLimit(memLimit),
		gramstore.WithMaxBackgroundWorkers(workers),
		gramstore.WithSliceDuration(slice),
	}
	return gramstore.New(cfg, append(opts, extra...)...)
}

func newLogHandler(w io.Writer, level slog.Level, json bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
