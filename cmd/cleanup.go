package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/orchestrator/core/job"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/infra/logger"
	"github.com/kilianp07/orchestrator/infra/store"
)

var (
	cleanupOlderThan time.Duration
	cleanupStatuses  []string
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete finished orchestration jobs",
	RunE:  cleanup,
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 7*24*time.Hour, "minimum age of the jobs to delete")
	cleanupCmd.Flags().StringSliceVar(&cleanupStatuses, "status", []string{string(model.JobDone), string(model.JobError)}, "job statuses to delete")
	rootCmd.AddCommand(cleanupCmd)
}

func parseStatuses(values []string) ([]model.JobStatus, error) {
	statuses := make([]model.JobStatus, 0, len(values))
	for _, v := range values {
		s, err := model.ParseJobStatus(v)
		if err != nil {
			return nil, err
		}
		if !s.Terminal() {
			return nil, fmt.Errorf("status %s is not terminal", s)
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func cleanup(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cleanupOlderThan < 0 {
		return fmt.Errorf("--older-than must not be negative")
	}
	statuses, err := parseStatuses(cleanupStatuses)
	if err != nil {
		return err
	}
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	db, err := store.Open(cfg.Store, logger.New("store"))
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = db.Close() }()

	jobs := job.NewManager(db.Jobs(), logger.New("cleanup"))
	n, err := jobs.Purge(ctx, statuses, time.Now().Add(-cleanupOlderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d jobs\n", n)
	return nil
}
