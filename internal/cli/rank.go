package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/daemon"
	"github.com/hotelops/hotelscore/internal/domain"
)

func init() {
	addUserFlag(rankCmd, &rankUser)
	rootCmd.AddCommand(rankCmd)
}

var rankUser string

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show a user's rank on the ladder",
	RunE:  runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	sess, err := sessionFor(rankUser)
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	stats, err := d.Engine.Updater.LoadStats(context.Background(), sess, sess.UserID)
	if err != nil {
		return err
	}
	r := scoring.RankFor(stats)

	fmt.Printf("Rank:    %s\n", r.Rank)
	fmt.Printf("Points:  %d\n", r.Points)
	if r.NextRank == domain.MaxRank {
		fmt.Println("Next:    top of the ladder")
		return nil
	}
	fmt.Printf("Next:    %s in %d pts  %s\n", r.NextRank, r.PointsNeeded, progressBar(r.Progress))
	return nil
}
