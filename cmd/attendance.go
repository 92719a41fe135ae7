package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "List recent attendance records",
	Long: `Attendance prints the newest attendance records, optionally filtered by
status (IN or FORBIDDEN) or by identity id or name. Name matching ignores
diacritics, so "jiri" finds "Jiří".`,
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("status", "", "Filter by status (IN or FORBIDDEN)")
	attendanceCmd.Flags().String("query", "", "Filter by identity id or name")
	attendanceCmd.Flags().Int("limit", 50, "Maximum number of records")
}

func runAttendance(cmd *cobra.Command, args []string) error {
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

	rows, err := store.ListAttendance(ctx, database.AttendanceFilter{
		Status: mustGetString(cmd, "status"),
		Query:  mustGetString(cmd, "query"),
		Limit:  mustGetInt(cmd, "limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	if len(rows) == 0 {
		fmt.Println("No attendance records found")
		return nil
	}

	for _, row := range rows {
		fmt.Printf("%s  %-9s  %-8s  %-24s  %.4f\n",
			row.CreatedAt.Format("2006-01-02 15:04:05"),
			row.Status, row.RoomCode, row.IdentityName, row.Confidence)
	}
	fmt.Printf("\n%d records\n", len(rows))
	return nil
}
