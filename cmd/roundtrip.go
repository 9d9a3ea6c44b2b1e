package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	roundTripContentType string
	roundTripOut         string
)

// roundTripCmd uploads a file, downloads it again and verifies the copy.
var roundTripCmd = &cobra.Command{
	Use:   "roundtrip <bucket> <file>",
	Short: "Upload, download and verify a file",
	Long: `Creates the bucket if needed, uploads the file under a generated key, downloads it
again and checks content type, length and content in that order.
Exits non-zero when any check fails.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startTime := time.Now()

		rt, err := newSession()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		bucket, path := args[0], args[1]
		contentType, err := resolveContentType(path, roundTripContentType)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		svc := rt.transferService()
		if err := svc.CreateBucket(ctx, bucket); err != nil {
			return err
		}

		t, result, err := svc.RoundTrip(ctx, bucket, filepath.Base(path), contentType, content, nil)

		fmt.Println("\n=== Round Trip ===")
		if t != nil {
			fmt.Printf("Key: %s\n", t.Key)
			fmt.Printf("State: %s\n", t.State)
			fmt.Printf("Digest: %s\n", t.Digest)
		}
		fmt.Printf("Result: %s\n", result)
		fmt.Printf("Execution Time: %s\n", time.Since(startTime).String())
		if err != nil {
			return err
		}

		if roundTripOut != "" {
			out, n, err := svc.DownloadToFile(ctx, bucket, t.Key, roundTripOut)
			if err != nil {
				return err
			}
			rt.logger.Info("Downloaded copy saved", zap.String("path", out), zap.Int64("bytes", n))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(roundTripCmd)
	roundTripCmd.Flags().StringVar(&roundTripContentType, "content-type", "", "Content type to store (detected when empty)")
	roundTripCmd.Flags().StringVar(&roundTripOut, "out", "", "Also save the downloaded copy into this directory")
}
