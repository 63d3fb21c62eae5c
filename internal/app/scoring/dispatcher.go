package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/infra/metrics"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// RecentHistory is how many history entries a Snapshot carries.
const RecentHistory = 10

// Snapshot is the dashboard view of one user.
type Snapshot struct {
	Stats      domain.UserStats      `json:"stats"`
	Level      domain.LevelInfo      `json:"level"`
	Rank       domain.RankInfo       `json:"rank"`
	Badges     []domain.BadgeView    `json:"badges"`
	Challenges []domain.Challenge    `json:"challenges"`
	Recent     []domain.HistoryEntry `json:"recent"`
}

// DispatchResult is what the UI receives after an action.
type DispatchResult struct {
	XPGained            int64                 `json:"xpGained"`
	BonusXP             int64                 `json:"bonusXp"`
	NewBadges           []domain.BadgeDef     `json:"newBadges"`
	CompletedChallenges []domain.ChallengeDef `json:"completedChallenges"`
	Limited             bool                  `json:"limited"`
	LevelUp             bool                  `json:"levelUp"`
	Snapshot            Snapshot              `json:"snapshot"`
}

// Dispatcher is the single entry point for scoring an action. It never
// returns an error and never lets a panic escape.
type Dispatcher struct {
	updater    *Updater
	challenges *ChallengeService
	rewarder   *ChallengeRewarder
	notifier   domain.Notifier
	log        *logger.Logger
}

// NewDispatcher wires a dispatcher. A nil notifier drops notifications.
func NewDispatcher(updater *Updater, challenges *ChallengeService, notifier domain.Notifier, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		updater:    updater,
		challenges: challenges,
		rewarder:   NewChallengeRewarder(challenges, updater, log),
		notifier:   notifier,
		log:        log.With("component", "dispatcher"),
	}
}

// Dispatch scores action for the session's user, rewards any weekly
// challenge it completes, notifies the UI and returns a fresh snapshot.
func (d *Dispatcher) Dispatch(ctx context.Context, sess domain.Session, action domain.Action) (out DispatchResult) {
	start := time.Now()
	userID := sess.UserID
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatch panic", "user_id", userID, "type", string(action.Type), "panic", fmt.Sprint(r))
			out = DispatchResult{Snapshot: d.localSnapshot(domain.NewUserStats(userID), nil)}
		}
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	res := d.updater.Update(ctx, sess, userID, action)
	out = DispatchResult{
		XPGained:  res.XPGained,
		NewBadges: res.NewBadges,
		Limited:   res.Limited,
		LevelUp:   res.LevelUp,
	}
	if !res.Applied {
		out.Snapshot = d.localSnapshot(res.Stats, nil)
		return out
	}

	latest := res.Stats
	now := d.updater.Clock().Now()
	week := isoWeek(now)
	for _, r := range d.rewardChallenges(ctx, sess, week, res) {
		out.BonusXP += r.result.XPGained
		out.NewBadges = append(out.NewBadges, r.result.NewBadges...)
		out.CompletedChallenges = append(out.CompletedChallenges, r.def)
		out.LevelUp = out.LevelUp || r.result.LevelUp
		latest = r.result.Stats
	}

	out.Snapshot = d.refresh(ctx, sess, latest)
	d.notify(ctx, userID, out, res.Previous.Level, latest.Level)
	return out
}

type reward struct {
	def    domain.ChallengeDef
	result Result
}

// rewardChallenges emits a ChallengeCompleted event for every challenge the
// update completed and hands it to the rewarder. Rewards can complete more
// challenges, so this repeats, at most once per catalog entry.
func (d *Dispatcher) rewardChallenges(ctx context.Context, sess domain.Session, week string, res Result) []reward {
	userID := sess.UserID
	baseline, err := d.challenges.Baseline(ctx, userID, week, res.Previous)
	if err != nil {
		d.log.Warn("challenge baseline unavailable", "user_id", userID, "error", err)
		metrics.PersistenceFailures.WithLabelValues("challenge_baseline").Inc()
		return nil
	}
	claimed, err := d.challenges.Claims(ctx, userID, week)
	if err != nil {
		d.log.Warn("challenge claims unavailable", "user_id", userID, "error", err)
		return nil
	}

	var rewards []reward
	before, after := res.Previous, res.Stats
	for round := 0; round < len(d.challenges.Catalog()); round++ {
		var pending []domain.ChallengeDef
		for _, def := range d.challenges.Flipped(baseline, before, after) {
			if !claimed[def.ID] {
				pending = append(pending, def)
			}
		}
		if len(pending) == 0 {
			break
		}

		before = after
		for _, def := range pending {
			claimed[def.ID] = true
			ev := domain.ChallengeCompleted{UserID: userID, Week: week, Challenge: def}
			rr, granted := d.rewarder.Handle(ctx, sess, ev)
			if !granted {
				continue
			}
			rewards = append(rewards, reward{def: def, result: rr})
			after = rr.Stats
		}
	}
	return rewards
}

// Snapshot loads the dashboard view for the session's user.
func (d *Dispatcher) Snapshot(ctx context.Context, sess domain.Session) (Snapshot, error) {
	stats, err := d.updater.LoadStats(ctx, sess, sess.UserID)
	if err != nil {
		return d.localSnapshot(stats, nil), err
	}
	return d.refresh(ctx, sess, stats), nil
}

// refresh reloads stats, challenge progress and recent history concurrently.
// Any failure falls back to the in-memory stats.
func (d *Dispatcher) refresh(ctx context.Context, sess domain.Session, fallback domain.UserStats) Snapshot {
	userID := sess.UserID
	var (
		stats      domain.UserStats
		challenges []domain.Challenge
		recent     []domain.HistoryEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.updater.LoadStats(gctx, sess, userID)
		if err != nil {
			return err
		}
		// The stats write is best-effort; never show less than what was just computed.
		if s.XP < fallback.XP {
			s = fallback
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		var err error
		challenges, err = d.challenges.Weekly(gctx, userID, fallback)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = d.updater.History().Recent(gctx, userID, RecentHistory)
		return err
	})

	if err := g.Wait(); err != nil {
		d.log.Warn("refresh failed, using in-memory stats", "user_id", userID, "error", err)
		return d.localSnapshot(fallback, nil)
	}

	snap := d.localSnapshot(stats, challenges)
	snap.Recent = recent
	return snap
}

// localSnapshot builds a snapshot from stats alone, without store reads.
func (d *Dispatcher) localSnapshot(stats domain.UserStats, challenges []domain.Challenge) Snapshot {
	if challenges == nil {
		challenges = []domain.Challenge{}
	}
	return Snapshot{
		Stats:      stats,
		Level:      LevelForXP(stats.XP),
		Rank:       RankFor(stats),
		Badges:     BadgeViews(d.updater.Badges(), stats),
		Challenges: challenges,
		Recent:     []domain.HistoryEntry{},
	}
}

// notify sends one notification per badge and challenge, one for XP and
// one for a level-up. Failures are logged.
func (d *Dispatcher) notify(ctx context.Context, userID string, out DispatchResult, fromLevel, toLevel int) {
	if d.notifier == nil {
		return
	}
	now := d.updater.Clock().Now()
	var batch []domain.Notification

	for _, b := range out.NewBadges {
		batch = append(batch, domain.Notification{
			Type:    domain.NotifyBadge,
			Title:   "Badge unlocked: " + b.Name,
			Body:    b.Description,
			BadgeID: b.ID,
		})
	}
	if out.XPGained > 0 {
		batch = append(batch, domain.Notification{
			Type:  domain.NotifyXP,
			Title: fmt.Sprintf("+%d XP", out.XPGained),
			XP:    out.XPGained,
		})
	}
	for _, c := range out.CompletedChallenges {
		batch = append(batch, domain.Notification{
			Type:  domain.NotifyChallenge,
			Title: "Challenge completed: " + c.Title,
			Body:  c.Description,
			XP:    c.XPReward,
		})
	}
	if toLevel > fromLevel {
		batch = append(batch, domain.Notification{
			Type:  domain.NotifyLevelUp,
			Title: fmt.Sprintf("Level %d reached", toLevel),
		})
	}

	for _, n := range batch {
		n.ID = uuid.NewString()
		n.UserID = userID
		n.CreatedAt = now
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.log.Warn("notification failed", "user_id", userID, "type", string(n.Type), "error", err)
		}
	}
}
