package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"transfer-manager/feature/integrity"
	"transfer-manager/feature/integrity/checks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// integrityCmd audits a bucket against the transfer ledger.
var integrityCmd = &cobra.Command{
	Use:   "integrity [bucket]",
	Short: "Perform integrity checks on stored objects",
	Long: `Streams every object of the bucket (the configured bucket by default), compares
lengths and, when the ledger database is reachable, BLAKE3 digests recorded at upload time.
Outputs metrics by default or detailed JSON with --json flag.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startTime := time.Now()

		jsonOutput, _ := cmd.Flags().GetBool("json")

		rt, err := newSession()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()
		logg := rt.logger

		bucket := rt.bucketArg(args, 0)
		svc := integrity.NewService(rt.client, bucket, rt.ledger, logg, rt.cfg.Transfer.ChunkSize)

		logg.Info("Checking bucket objects (this might take a while)...", zap.String("bucket", bucket))
		report, err := svc.CheckBucket(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket integrity check failed: %w", err)
		}

		var issues []checks.ObjectReport
		for _, obj := range report.Objects {
			if obj.Status != checks.StatusOK {
				issues = append(issues, obj)
			}
		}

		if rt.ledger != nil {
			if ledgerReport, err := svc.CheckLedger(); err != nil {
				logg.Error("Ledger schema check failed", zap.Error(err))
			} else if !ledgerReport.Matched {
				logg.Warn("Ledger schema is missing columns", zap.Strings("missing", ledgerReport.MissingColumns))
			}
		}

		if jsonOutput {
			filename := fmt.Sprintf("integrity_%s_%d.json", bucket, time.Now().Unix())
			data, err := json.MarshalIndent(issues, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			if err := os.WriteFile(filename, data, 0644); err != nil {
				return fmt.Errorf("failed to save JSON file: %w", err)
			}
			logg.Info("Detailed JSON report saved", zap.String("file", filename), zap.Int("objects_with_issues", len(issues)))
		}

		executionTime := time.Since(startTime)

		fmt.Println("\n=== Bucket Integrity Metrics ===")
		fmt.Printf("Bucket: %s\n", bucket)
		fmt.Printf("Objects Checked: %d\n", report.Checked)
		fmt.Printf("Objects With Issues: %d\n", len(issues))
		fmt.Printf("Digests Compared: %t\n", rt.ledger != nil)
		fmt.Printf("Execution Time: %s\n", executionTime.String())

		logg.Info("Bucket integrity check completed",
			zap.String("bucket", bucket),
			zap.Int("checked", report.Checked),
			zap.Int("issues", len(issues)),
			zap.Duration("execution_time", executionTime),
		)

		if len(issues) > 0 {
			return fmt.Errorf("%d of %d objects failed integrity checks", len(issues), report.Checked)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.Flags().Bool("json", false, "Save objects with issues as a JSON report")
}
