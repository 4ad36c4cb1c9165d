package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/client/syncer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watch bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local drafts with the audit store",
	Long: `sync lists the audits visible to the signed-in user and drops local copies
the audit store made redundant. With --watch it keeps reconciling on the
SYNC_RECONCILE_CRON schedule until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withSession(ctx, func(s *session) error {
			reconcile := func() {
				rctx, cancel := context.WithTimeout(ctx, cfg.Client.Timeout+10*time.Second)
				defer cancel()
				recs, err := s.store.LoadAll(rctx)
				if err != nil {
					logger.Warn("reconcile failed", zap.Error(err))
					return
				}
				logger.Info("reconciled", zap.Int("audits", len(recs)))
			}

			reconcile()
			if !watch {
				printRecords(cmd.OutOrStdout(), s.store.Summaries())
				return nil
			}

			c, err := syncer.StartPeriodic(cfg.Client.ReconcileCron, reconcile)
			if err != nil {
				return err
			}
			logger.Info("watching", zap.String("schedule", cfg.Client.ReconcileCron))
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		})
	},
}

func init() {
	syncCmd.Flags().BoolVar(&watch, "watch", false, "keep reconciling on a schedule")
	rootCmd.AddCommand(syncCmd)
}
