package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"push-manager/core/logger"
	"push-manager/core/reconcile"
	"push-manager/feature/subscription"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sessionExternalID string
	sessionCategory   string
	sessionTimeout    time.Duration
	sessionVerbose    bool
)

// sessionCmd groups one-shot reconciler operations for a single visitor.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reconcile one visitor's subscription",
	Long: `Runs the reconciler for a single external id against the configured
push provider and key/value store, then prints the resulting snapshot.

Examples:
  # Show state
  session status --external-id visitor-42

  # Select a category and tag it when opted in
  session apply --external-id visitor-42 --category events

  # Opt in and apply the persisted category
  session subscribe --external-id visitor-42`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if sessionExternalID == "" {
			return fmt.Errorf("--external-id is required")
		}
		return nil
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the session snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(func(ctx context.Context, svc *subscription.Service) (reconcile.Snapshot, error) {
			sess, err := svc.Get(sessionExternalID)
			if err != nil {
				return reconcile.Snapshot{}, err
			}
			return sess.Snapshot()
		})
	},
}

var sessionApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Select a category and apply it when opted in",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionCategory == "" {
			return fmt.Errorf("--category is required")
		}
		return runSession(func(ctx context.Context, svc *subscription.Service) (reconcile.Snapshot, error) {
			return svc.SelectCategory(ctx, sessionExternalID, sessionCategory)
		})
	},
}

var sessionSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Opt in and apply the given or persisted category",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(func(ctx context.Context, svc *subscription.Service) (reconcile.Snapshot, error) {
			return svc.Subscribe(ctx, sessionExternalID, sessionCategory)
		})
	},
}

var sessionUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe",
	Short: "Opt out and clear the application record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(func(ctx context.Context, svc *subscription.Service) (reconcile.Snapshot, error) {
			return svc.Unsubscribe(ctx, sessionExternalID)
		})
	},
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionExternalID, "external-id", "", "Visitor external id")
	sessionCmd.PersistentFlags().DurationVar(&sessionTimeout, "timeout", 2*time.Minute, "Overall timeout")
	sessionCmd.PersistentFlags().BoolVarP(&sessionVerbose, "verbose", "v", false, "Log reconciler details")
	sessionApplyCmd.Flags().StringVar(&sessionCategory, "category", "", "Category id")
	sessionSubscribeCmd.Flags().StringVar(&sessionCategory, "category", "", "Category id (defaults to the persisted one)")

	sessionCmd.AddCommand(sessionStatusCmd, sessionApplyCmd, sessionSubscribeCmd, sessionUnsubscribeCmd)
	RootCmd.AddCommand(sessionCmd)
}

type sessionAction func(ctx context.Context, svc *subscription.Service) (reconcile.Snapshot, error)

// runSession opens the visitor's session, runs action and prints the
// snapshot. A pending tag update is reported but does not fail the command.
func runSession(action sessionAction) error {
	logCfg := &logger.Config{Level: "warn", Format: "console"}
	if sessionVerbose {
		logCfg.Level = "debug"
	}

	rt, err := newStack(logCfg)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()

	svc := rt.subscriptions()
	defer svc.CloseAll()

	if _, err := svc.Open(ctx, sessionExternalID); err != nil {
		if !reconcile.IsRecoverable(err) {
			return err
		}
		rt.logger.Warn("Session started with a pending update", zap.Error(err))
	}

	snap, actionErr := action(ctx, svc)
	if actionErr != nil && !reconcile.IsRecoverable(actionErr) {
		return actionErr
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return err
	}
	if actionErr != nil {
		fmt.Fprintf(os.Stderr, "update pending: %v\n", actionErr)
	}
	return nil
}
