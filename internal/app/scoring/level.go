package scoring

import (
	"fmt"

	"github.com/hotelops/hotelscore/internal/domain"
)

// levelBands partitions [0, ∞) into ten contiguous levels. The top band is open.
var levelBands = []domain.LevelBand{
	{Level: 1, MinXP: 0, MaxXP: 99},
	{Level: 2, MinXP: 100, MaxXP: 249},
	{Level: 3, MinXP: 250, MaxXP: 499},
	{Level: 4, MinXP: 500, MaxXP: 999},
	{Level: 5, MinXP: 1000, MaxXP: 1749},
	{Level: 6, MinXP: 1750, MaxXP: 2749},
	{Level: 7, MinXP: 2750, MaxXP: 3999},
	{Level: 8, MinXP: 4000, MaxXP: 5999},
	{Level: 9, MinXP: 6000, MaxXP: 8499},
	{Level: 10, MinXP: 8500, MaxXP: domain.OpenEnded},
}

// LevelBands returns a copy of the level table.
func LevelBands() []domain.LevelBand {
	return append([]domain.LevelBand(nil), levelBands...)
}

// MaxLevel is the level of the open top band.
func MaxLevel() int {
	return levelBands[len(levelBands)-1].Level
}

// LevelForXP maps xp onto its band. Negative xp is treated as zero.
// Progress is the position inside the band, 0-100; the open top band reports 100.
func LevelForXP(xp int64) domain.LevelInfo {
	if xp < 0 {
		xp = 0
	}
	band := levelBands[len(levelBands)-1]
	for _, b := range levelBands {
		if b.Contains(xp) {
			band = b
			break
		}
	}

	info := domain.LevelInfo{Level: band.Level, XP: xp, Band: band}
	if band.MaxXP == domain.OpenEnded {
		info.Progress = 100
		return info
	}
	span := band.MaxXP - band.MinXP
	if span <= 0 {
		info.Progress = 100
	} else {
		info.Progress = clampPct(float64(xp-band.MinXP) / float64(span) * 100)
	}
	info.XPToNext = band.MaxXP + 1 - xp
	return info
}

// ValidateBands checks that bands start at zero, are contiguous and
// non-overlapping, and end with exactly one open band.
func ValidateBands(bands []domain.LevelBand) error {
	if len(bands) == 0 {
		return fmt.Errorf("no level bands")
	}
	if bands[0].MinXP != 0 {
		return fmt.Errorf("first band starts at %d, want 0", bands[0].MinXP)
	}
	for i, b := range bands {
		last := i == len(bands)-1
		if last != (b.MaxXP == domain.OpenEnded) {
			return fmt.Errorf("band %d: only the last band may be open", b.Level)
		}
		if !last {
			if b.MaxXP < b.MinXP {
				return fmt.Errorf("band %d: max %d < min %d", b.Level, b.MaxXP, b.MinXP)
			}
			if next := bands[i+1]; b.MaxXP+1 != next.MinXP {
				return fmt.Errorf("gap or overlap between level %d and %d", b.Level, next.Level)
			}
		}
	}
	return nil
}

func clampPct(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
