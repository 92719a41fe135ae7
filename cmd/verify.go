package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <room> <image>",
	Short: "Run one verification attempt against a room",
	Long: `Verify matches the face in the given photo against all enrolled
identities, evaluates access policy for the room and records the signed
attendance and audit entries, exactly as the API endpoint does.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	roomCode, imagePath := args[0], args[1]

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

	decision, err := service.Verify(ctx, img, roomCode, "cli")
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if !decision.Matched {
		fmt.Printf("No match (%s), best score %.4f\n", decision.Reason, decision.Score)
		return nil
	}

	verdict := "DENIED"
	if decision.Authorized {
		verdict = "GRANTED"
	}
	fmt.Printf("%s: %s (%s) at %s\n", verdict, decision.Identity.Name, decision.Identity.ID, roomCode)
	fmt.Printf("  Score:  %.4f\n", decision.Score)
	fmt.Printf("  Reason: %s\n", decision.Reason)
	return nil
}
