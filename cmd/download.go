package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	downloadOut    string
	downloadStdout bool
)

// downloadCmd streams an object into a local file or standard output.
var downloadCmd = &cobra.Command{
	Use:   "download <bucket> <key>",
	Short: "Download an object",
	Long: `Downloads an object into --out as "<key>.<ext>", where ext is the extension of
the original filename embedded in the key. With --stdout the body is written to standard output.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newSession()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		svc := rt.transferService()
		bucket, key := args[0], args[1]

		if downloadStdout {
			// hide Close so the download does not close stdout
			_, _, err := svc.Download(cmd.Context(), bucket, key, struct{ io.Writer }{os.Stdout})
			return err
		}

		if err := os.MkdirAll(downloadOut, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", downloadOut, err)
		}
		path, n, err := svc.DownloadToFile(cmd.Context(), bucket, key, downloadOut)
		if err != nil {
			return err
		}
		rt.logger.Info("Object downloaded", zap.String("path", path), zap.Int64("bytes", n))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVar(&downloadOut, "out", ".", "Directory to write the object into")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "Write the object body to standard output")
}
