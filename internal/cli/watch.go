package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hotelops/hotelscore/internal/daemon"
	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/infra/redisbus"
)

func init() {
	watchCmd.Flags().StringVar(&watchUser, "user", "", "Only show notifications for this user")
	rootCmd.AddCommand(watchCmd)
}

var watchUser string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live notifications from the Redis channel",
	Long:  `Stream notifications published by a running server. Requires notify.redis_addr.`,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Notify.RedisAddr == "" {
		return fmt.Errorf("notify.redis_addr is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := redisbus.New(ctx, redisbus.Options{
		Addr:     cfg.Notify.RedisAddr,
		Password: cfg.Notify.RedisPassword,
		DB:       cfg.Notify.RedisDB,
		Channel:  cfg.Notify.RedisChannel,
	}, nil)
	if err != nil {
		return err
	}
	defer bus.Close()

	err = bus.Subscribe(ctx, func(n domain.Notification) {
		if watchUser != "" && n.UserID != watchUser {
			return
		}
		fmt.Fprintln(os.Stdout, formatNotification(n))
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", bus.Channel())
	<-ctx.Done()
	return nil
}

func formatNotification(n domain.Notification) string {
	line := fmt.Sprintf("%s  %-8s  %-20s  %s", n.CreatedAt.Format("15:04:05"), n.UserID, n.Type, n.Title)
	if n.Body != "" {
		line += ": " + n.Body
	}
	return line
}
