package scoring

import "github.com/hotelops/hotelscore/internal/domain"

// Rank point weights.
const (
	PointsPerBadge            int64 = 100
	PointsPerIncidentResolved int64 = 10
	PointsPerMaintenanceDone  int64 = 10
	PointsPerQualityCheck     int64 = 15
	PointsPerLostItemReturned int64 = 5
	PointsPerProcedureCreated int64 = 20
)

var rankLadder = []domain.RankTier{
	{Name: "Bronze", Min: 0, Max: 999},
	{Name: "Argent", Min: 1000, Max: 2999},
	{Name: "Or", Min: 3000, Max: 6999},
	{Name: "Platine", Min: 7000, Max: 14999},
	{Name: "Diamant", Min: 15000, Max: 29999},
	{Name: "Légende", Min: 30000, Max: domain.OpenEnded},
}

// RankLadder returns a copy of the tiers, lowest first.
func RankLadder() []domain.RankTier {
	return append([]domain.RankTier(nil), rankLadder...)
}

// RankPoints is the weighted composite of XP, badges and completed work.
func RankPoints(s domain.UserStats) int64 {
	return s.XP +
		int64(len(s.Badges))*PointsPerBadge +
		s.IncidentsResolved*PointsPerIncidentResolved +
		s.MaintenanceCompleted*PointsPerMaintenanceDone +
		s.QualityChecksCompleted*PointsPerQualityCheck +
		s.LostItemsReturned*PointsPerLostItemReturned +
		s.ProceduresCreated*PointsPerProcedureCreated
}

// RankFor places the user on the ladder.
func RankFor(s domain.UserStats) domain.RankInfo {
	return rankForPoints(RankPoints(s))
}

func rankForPoints(points int64) domain.RankInfo {
	idx := 0
	for i, t := range rankLadder {
		if points >= t.Min {
			idx = i
		}
	}
	tier := rankLadder[idx]
	info := domain.RankInfo{Rank: tier.Name, Points: points}

	if idx == len(rankLadder)-1 {
		info.NextRank = domain.MaxRank
		info.Progress = 100
		return info
	}
	next := rankLadder[idx+1]
	info.NextRank = next.Name
	info.PointsNeeded = next.Min - points
	info.Progress = clampPct(float64(points-tier.Min) / float64(next.Min-tier.Min) * 100)
	return info
}
