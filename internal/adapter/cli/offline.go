package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/response"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"
	"github.com/Sarrabentardeit/Auditalex/internal/report"

	"github.com/spf13/cobra"
)

var reportOut string

var scoreCmd = &cobra.Command{
	Use:   "score <audit.json>",
	Short: "Print the results of an audit document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := readAudit(args[0])
		if err != nil {
			return err
		}
		res := scoring.New(cfg.Scoring.FinePerKO).Score(a)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(response.FromResults(a, res))
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <audit.json>",
	Short: "Render the HTML report of an audit document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := readAudit(args[0])
		if err != nil {
			return err
		}
		doc, err := report.NewFormatter().Render(a, scoring.New(cfg.Scoring.FinePerKO).Score(a))
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		if reportOut == "" || reportOut == "-" {
			_, err = io.WriteString(cmd.OutOrStdout(), doc.HTML())
			return err
		}
		if err := os.WriteFile(reportOut, []byte(doc.HTML()), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s (%d pages)\n", reportOut, len(doc.Pages))
		return nil
	},
}

func readAudit(path string) (entities.Audit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return entities.Audit{}, fmt.Errorf("read audit: %w", err)
	}
	var a entities.Audit
	if err := json.Unmarshal(raw, &a); err != nil {
		return entities.Audit{}, fmt.Errorf("decode audit %s: %w", path, err)
	}
	return a, nil
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(scoreCmd, reportCmd)
}
