package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy attendance records into the backup table",
	Long: `Backup copies attendance records, including their payloads and
signatures, into the attendance_backup table. Signatures are copied verbatim
so the backed-up records stay independently verifiable.`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	total, err := store.CountAttendance(ctx)
	if err != nil {
		return fmt.Errorf("failed to count attendance: %w", err)
	}
	if total == 0 {
		fmt.Println("No attendance records to back up")
		return nil
	}

	rows, err := store.ListAttendance(ctx, database.AttendanceFilter{Limit: total})
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("Backing up attendance"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	for _, row := range rows {
		if err := store.AppendAttendanceBackup(ctx, database.AttendanceBackupRow{
			OriginalID: row.ID,
			IdentityID: row.IdentityID,
			RoomCode:   row.RoomCode,
			Status:     row.Status,
			Confidence: row.Confidence,
			Payload:    row.Payload,
			Signature:  row.Signature,
			OriginalAt: row.CreatedAt,
		}); err != nil {
			return fmt.Errorf("failed to back up record %d: %w", row.ID, err)
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\nBacked up %d attendance records\n", len(rows))
	return nil
}
