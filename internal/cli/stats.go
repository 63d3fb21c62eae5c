package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/daemon"
)

func init() {
	addUserFlag(statsCmd, &statsUser)
	rootCmd.AddCommand(statsCmd)
}

var statsUser string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's scoring dashboard",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	sess, err := sessionFor(statsUser)
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	snap, err := d.Engine.Dispatcher.Snapshot(context.Background(), sess)
	if err != nil {
		return err
	}
	s := snap.Stats

	fmt.Printf("User:        %s\n", s.UserID)
	fmt.Printf("XP:          %d\n", s.XP)
	fmt.Printf("Level:       %d  %s", snap.Level.Level, progressBar(snap.Level.Progress))
	if snap.Level.XPToNext > 0 {
		fmt.Printf("  (%d XP to next)", snap.Level.XPToNext)
	}
	fmt.Println()
	fmt.Printf("Rank:        %s (%d pts)\n", snap.Rank.Rank, snap.Rank.Points)
	fmt.Printf("Badges:      %d\n", len(s.Badges))
	fmt.Printf("Streak:      %d days (longest %d)\n", s.CurrentStreak, s.LongestStreak)
	fmt.Println()
	fmt.Printf("Incidents:   %d created, %d resolved (%d critical), avg %.1f min\n",
		s.IncidentsCreated, s.IncidentsResolved, s.CriticalIncidentsResolved, s.AvgResolutionTime)
	fmt.Printf("Maintenance: %d created, %d completed (%d ahead of schedule)\n",
		s.MaintenanceCreated, s.MaintenanceCompleted, s.MaintenanceQuickCompleted)
	fmt.Printf("Quality:     %d checks, avg score %.1f\n", s.QualityChecksCompleted, s.AvgQualityScore)
	fmt.Printf("Lost items:  %d registered, %d returned\n", s.LostItemsRegistered, s.LostItemsReturned)
	fmt.Printf("Procedures:  %d created, %d read, %d validated\n",
		s.ProceduresCreated, s.ProceduresRead, s.ProceduresValidated)
	fmt.Printf("Team:        %d helped, %d thanks\n", s.HelpProvided, s.ThanksReceived)

	if len(snap.Challenges) > 0 {
		fmt.Println()
		fmt.Println("This week:")
		for _, c := range snap.Challenges {
			mark := " "
			if c.Completed {
				mark = "x"
			}
			fmt.Printf("  [%s] %-28s %s\n", mark, c.Title, progressBar(c.Progress))
		}
	}
	return nil
}
