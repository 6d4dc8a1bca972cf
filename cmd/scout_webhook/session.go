package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/jonathan/scout-webhook/internal/observability"
	"github.com/spf13/cobra"
)

var (
	sessionLogLimit int
)

var sessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Show a study session",
	Long:  `Print a session's status, its most recent audit log entries and, when it belongs to a study, the current evaluation ranking.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

func init() {
	sessionCmd.Flags().IntVar(&sessionLogLimit, "logs", 20, "Number of audit entries to show")
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", args[0], err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	sess, err := database.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found: %s", id)
	}

	logs, err := database.ListSessionLogs(ctx, id, sessionLogLimit)
	if err != nil {
		return err
	}

	p := observability.NewPrinter(cmd.OutOrStdout())
	p.PrintSession(sess)
	p.PrintSessionLogs(logs)

	if sess.StudyID != nil {
		evals, err := database.ListEvaluations(ctx, *sess.StudyID)
		if err != nil {
			return err
		}
		p.PrintEvaluations(evals)
	}
	return nil
}
