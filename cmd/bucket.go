package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// bucketCmd is the parent command for bucket operations.
var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Create or delete storage buckets",
}

// bucketCreateCmd creates a bucket. An existing bucket is left as is.
var bucketCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a bucket (defaults to the configured bucket)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newSession()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		bucket := rt.bucketArg(args, 0)
		if err := rt.transferService().CreateBucket(cmd.Context(), bucket); err != nil {
			return err
		}
		rt.logger.Info("Bucket ready", zap.String("bucket", bucket))
		return nil
	},
}

// bucketDeleteCmd removes a bucket and every object in it.
var bucketDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a bucket and all of its objects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newSession()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if err := rt.transferService().DeleteBucket(cmd.Context(), args[0]); err != nil {
			return err
		}
		rt.logger.Info("Bucket deleted", zap.String("bucket", args[0]))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(bucketCmd)
	bucketCmd.AddCommand(bucketCreateCmd, bucketDeleteCmd)
}
