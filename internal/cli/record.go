package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/daemon"
	"github.com/hotelops/hotelscore/internal/domain"
)

func init() {
	addUserFlag(recordCmd, &recordUser)
	recordCmd.Flags().StringVar(&recordSeverity, "severity", "", "Incident severity (critical earns the multiplier)")
	recordCmd.Flags().Float64Var(&recordResolution, "resolution-time", 0, "Incident resolution time in minutes")
	recordCmd.Flags().Float64Var(&recordScore, "score", 0, "Quality check score (0-100)")
	recordCmd.Flags().BoolVar(&recordBeforeSchedule, "before-schedule", false, "Maintenance completed ahead of schedule")
	recordCmd.Flags().StringVar(&recordRef, "ref", "", "Business record that triggered the action")
	rootCmd.AddCommand(recordCmd)
}

var (
	recordUser           string
	recordSeverity       string
	recordResolution     float64
	recordScore          float64
	recordBeforeSchedule bool
	recordRef            string
)

var recordCmd = &cobra.Command{
	Use:   "record ACTION",
	Short: "Score one action for a user",
	Long: `Score one action for a user, e.g.:

  hotelscore record RESOLVE_INCIDENT --user alice --severity critical --resolution-time 25
  hotelscore record login --user alice`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	sess, err := sessionFor(recordUser)
	if err != nil {
		return err
	}
	typ, err := parseRecordable(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Engine.Dispatcher.Dispatch(context.Background(), sess, domain.Action{
		Type:           typ,
		Severity:       recordSeverity,
		ResolutionTime: recordResolution,
		Score:          recordScore,
		BeforeSchedule: recordBeforeSchedule,
		RefID:          recordRef,
	})

	if res.Limited {
		fmt.Printf("Rate limited: %s not scored for %s\n", typ, sess.UserID)
		return nil
	}
	fmt.Printf("+%d XP", res.XPGained)
	if res.BonusXP > 0 {
		fmt.Printf(" (+%d challenge bonus)", res.BonusXP)
	}
	fmt.Println()
	for _, b := range res.NewBadges {
		fmt.Printf("Badge unlocked: %s %s\n", b.Icon, b.Name)
	}
	for _, c := range res.CompletedChallenges {
		fmt.Printf("Challenge completed: %s\n", c.Title)
	}

	snap := res.Snapshot
	if res.LevelUp {
		fmt.Printf("Level up! Now level %d\n", snap.Level.Level)
	}
	fmt.Printf("Level %d  %s  %d XP\n", snap.Level.Level, progressBar(snap.Level.Progress), snap.Stats.XP)
	return nil
}
