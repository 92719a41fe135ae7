package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <identity-id> <name> <image>",
	Short: "Enroll an identity from a face photo",
	Long: `Enroll computes an identity vector from the given photo and stores it
under the identity id. Re-enrolling an existing id replaces the vector.`,
	Args: cobra.ExactArgs(3),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	identityID, name, imagePath := args[0], args[1], args[2]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	service, err := buildService(cfg, store, log)
	if err != nil {
		return err
	}

	img, err := loadImage(imagePath)
	if err != nil {
		return err
	}

	identity, err := service.Enroll(ctx, img, identityID, name, "cli")
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s (%s) with a %d-dimensional vector\n", identity.ID, identity.Name, len(identity.Vector))
	return nil
}
