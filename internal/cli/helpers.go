package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/domain"
)

// addUserFlag binds the --user flag every per-user command takes.
func addUserFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "user", "u", "", "User id to act as")
}

// sessionFor builds the session the CLI acts under.
func sessionFor(userID string) (domain.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Session{}, fmt.Errorf("--user is required: %w", domain.ErrNoSession)
	}
	return domain.Session{UserID: userID}, nil
}

// parseActionType accepts action names in any case, with dashes or underscores.
func parseActionType(s string) (domain.ActionType, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	t := domain.ActionType(name)
	if !t.Known() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAction, s)
	}
	return t, nil
}

// parseRecordable is parseActionType minus the reward-only actions.
func parseRecordable(s string) (domain.ActionType, error) {
	t, err := parseActionType(s)
	if err != nil {
		return "", err
	}
	if t == domain.ActionCompleteWeeklyGoal {
		return "", fmt.Errorf("%w: %s", domain.ErrRewardOnly, t)
	}
	return t, nil
}
