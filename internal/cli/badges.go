package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/daemon"
	"github.com/hotelops/hotelscore/internal/domain"
)

func init() {
	addUserFlag(badgesCmd, &badgesUser)
	rootCmd.AddCommand(badgesCmd)
}

var badgesUser string

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List the badge catalog, with unlock status when --user is set",
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	stats := domain.NewUserStats("")
	if badgesUser != "" {
		sess, err := sessionFor(badgesUser)
		if err != nil {
			return err
		}
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		stats, err = d.Engine.Updater.LoadStats(context.Background(), sess, sess.UserID)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUNLOCKED\tDESCRIPTION")
	for _, b := range scoring.BadgeViews(scoring.AllBadges(), stats) {
		unlocked := "-"
		if b.Unlocked {
			unlocked = "yes"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			b.ID,
			b.Icon, b.Name,
			b.Category,
			unlocked,
			b.Description,
		)
	}
	return w.Flush()
}
