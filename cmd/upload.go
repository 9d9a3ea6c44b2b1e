package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var uploadContentType string

// uploadCmd streams a local file into a bucket under a generated key.
var uploadCmd = &cobra.Command{
	Use:   "upload <bucket> <file>",
	Short: "Upload a file under a generated key",
	Long: `Uploads a file under the key "<uuid>_<filename>".
The content type is detected from the file contents unless --content-type is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newSession()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		bucket, path := args[0], args[1]
		contentType, err := resolveContentType(path, uploadContentType)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		t, err := rt.transferService().Upload(cmd.Context(), bucket, filepath.Base(path), contentType, f, info.Size())
		if err != nil {
			return err
		}
		return printJSON(t)
	},
}

func init() {
	RootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "Content type to store (detected when empty)")
}

// resolveContentType returns explicit, or the type sniffed from the file.
func resolveContentType(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type of %s: %w", path, err)
	}
	return mtype.String(), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
