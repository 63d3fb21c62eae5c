package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/daemon"
)

func init() {
	addUserFlag(historyCmd, &historyUser)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

var (
	historyUser  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's most recent scored actions",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	sess, err := sessionFor(historyUser)
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.Engine.Updater.History().Recent(context.Background(), sess.UserID, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No scored actions yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tXP\tTOTAL\tLEVEL\tBADGES")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t+%d\t%d\t%d\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04"),
			e.ActionType,
			e.XPGained,
			e.TotalXP,
			e.Level,
			strings.Join(e.NewBadges, ","),
		)
	}
	return w.Flush()
}
