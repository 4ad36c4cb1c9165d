package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/response"
	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	newDate    string
	newAddress string
	obsAction  string
)

var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "Edit audits through the local draft store",
	Long: `Every change is saved in the local draft database first and then sent to
the audit store. Changes that cannot be sent stay local and are retried the
next time the audit is loaded.`,
}

var auditsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the audits visible to the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withSession(ctx, func(s *session) error {
			recs, err := s.store.LoadAll(ctx)
			if err != nil {
				logger.Warn("audit store unreachable, showing local copies", zap.Error(err))
			}
			printRecords(cmd.OutOrStdout(), recs)
			return nil
		})
	},
}

var auditsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new audit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withSession(ctx, func(s *session) error {
			if _, err := s.store.LoadAll(ctx); err != nil {
				logger.Warn("audit list not refreshed", zap.Error(err))
			}
			rec, err := s.store.Create(ctx, newDate, newAddress)
			if err != nil {
				return err
			}
			// The first write may have swapped the placeholder already.
			if cur, ok := s.store.Current(); ok {
				rec = cur
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID.String())
			return nil
		})
	},
}

var auditsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the results of an audit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAudit(ctx, args[0], func(s *session) error {
			cur, _ := s.store.Current()
			res := s.store.RecomputeNow()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(response.FromResults(cur.Audit, res))
		})
	},
}

var auditsCountCmd = &cobra.Command{
	Use:   "count <id> <category> <item> <n|none>",
	Short: "Record the non-conformity count of an item",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var count *int
		if !strings.EqualFold(args[3], "none") {
			n, err := cast.ToIntE(args[3])
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			count = &n
		}
		ctx := cmd.Context()
		return withAudit(ctx, args[0], func(s *session) error {
			return s.store.SetNonConformities(ctx, args[1], args[2], count)
		})
	},
}

var auditsKOCmd = &cobra.Command{
	Use:   "ko <id> <category> <item> <n>",
	Short: "Record the knock-out count of an item",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cast.ToIntE(args[3])
		if err != nil {
			return fmt.Errorf("ko: %w", err)
		}
		ctx := cmd.Context()
		return withAudit(ctx, args[0], func(s *session) error {
			return s.store.SetKO(ctx, args[1], args[2], n)
		})
	},
}

var auditsObserveCmd = &cobra.Command{
	Use:   "observe <id> <category> <item> <text>",
	Short: "Add an observation to an item",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAudit(ctx, args[0], func(s *session) error {
			id, err := s.store.AddObservation(ctx, args[1], args[2], args[3], obsAction)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var auditsPlanCmd = &cobra.Command{
	Use:   "plan <id>",
	Short: "Regenerate and save the corrective action plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAudit(ctx, args[0], func(s *session) error {
			rows, err := s.store.GenerateCorrectiveActions()
			if err != nil {
				return err
			}
			if err := s.store.SetCorrectiveActions(ctx, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d corrective actions\n", len(rows))
			return nil
		})
	},
}

var auditsFinishCmd = &cobra.Command{
	Use:   "finish <id>",
	Short: "Complete an audit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAudit(ctx, args[0], func(s *session) error {
			return s.store.Finish(ctx)
		})
	},
}

var auditsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an audit locally and from the audit store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := draft.ParseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		return withSession(ctx, func(s *session) error {
			return s.store.Delete(ctx, id)
		})
	},
}

func printRecords(w io.Writer, recs []draft.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDATE\tADDRESS\tSTATE")
	for _, r := range recs {
		state := "synced"
		switch {
		case r.Dirty:
			state = "pending"
		case r.ID.IsPlaceholder():
			state = "local"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Audit.Status, r.Audit.DateExecution, r.Audit.Address, state)
	}
	_ = tw.Flush()
}

func init() {
	auditsNewCmd.Flags().StringVar(&newDate, "date", "", "execution date (YYYY-MM-DD)")
	auditsNewCmd.Flags().StringVar(&newAddress, "address", "", "audited site address")
	_ = auditsNewCmd.MarkFlagRequired("date")

	auditsObserveCmd.Flags().StringVar(&obsAction, "action", "", "corrective action for the observation")

	auditsCmd.AddCommand(
		auditsListCmd,
		auditsNewCmd,
		auditsShowCmd,
		auditsCountCmd,
		auditsKOCmd,
		auditsObserveCmd,
		auditsPlanCmd,
		auditsFinishCmd,
		auditsDeleteCmd,
	)
	rootCmd.AddCommand(auditsCmd)
}
