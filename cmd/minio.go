package cmd

import (
	"fmt"
	"log"

	"tunecast/config"
	"tunecast/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Test the MinIO connection",
	Long:  `Connect to the configured MinIO endpoint and verify bucket access.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if cfg.MinioEndpoint == "" {
			log.Fatal("MINIO_ENDPOINT is not configured")
		}
		fmt.Printf("Testing MinIO at %s (bucket %s)...\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("MinIO check failed: %v", err)
		}
		fmt.Println("MinIO connection and bucket access verified.")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
