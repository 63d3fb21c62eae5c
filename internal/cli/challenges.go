package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/daemon"
)

func init() {
	addUserFlag(challengesCmd, &challengesUser)
	rootCmd.AddCommand(challengesCmd)
}

var challengesUser string

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "Show this week's challenge progress for a user",
	RunE:  runChallenges,
}

func runChallenges(cmd *cobra.Command, args []string) error {
	sess, err := sessionFor(challengesUser)
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := context.Background()
	stats, err := d.Engine.Updater.LoadStats(ctx, sess, sess.UserID)
	if err != nil {
		return err
	}
	list, err := d.Engine.Challenges.Weekly(ctx, sess.UserID, stats)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHALLENGE\tPROGRESS\tREWARD\tSTATUS")
	for _, c := range list {
		status := "open"
		switch {
		case c.Claimed:
			status = "claimed"
		case c.Completed:
			status = "completed"
		}
		fmt.Fprintf(w, "%s\t%s\t%d XP\t%s\n",
			c.Title,
			progressBar(c.Progress),
			c.XPReward,
			status,
		)
	}
	return w.Flush()
}
