// Package rating implements the competitive rating formula and the best-50
// aggregation used by the tracker.
package rating

import (
	"math"
	"strconv"

	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/version"
)

// achievementCap is the perfect-plus ceiling. Achievements above it are
// treated as capped, not as an error.
const achievementCap = 100.5

// dxIDThreshold: song ids above this belong to DX charts.
const dxIDThreshold = 10000

// coefficient ladder, descending thresholds, first match wins. Achievements
// below the last threshold earn nothing.
var coefficients = []struct {
	threshold float64
	factor    float64
}{
	{100.5, 22.4},
	{100.0, 21.6},
	{99.5, 21.1},
	{99.0, 20.8},
	{98.0, 20.3},
	{97.0, 20.0},
	{94.0, 16.8},
	{90.0, 15.2},
	{80.0, 13.6},
}

func coefficientFor(achievement float64) float64 {
	for _, c := range coefficients {
		if achievement >= c.threshold {
			return c.factor
		}
	}
	return 0
}

// Compute returns the integer rating for a chart attempt. Achievement is
// clamped at 100.5 before the ladder lookup; anything below 80 rates zero.
func Compute(ds, achievement float64) int {
	ach := math.Min(achievementCap, achievement)
	return int(math.Floor(ds * (ach / 100) * coefficientFor(ach)))
}

// CatalogLookup resolves a song catalog entry by its numeric id.
type CatalogLookup interface {
	SongByNumber(id int) (domain.Song, bool)
}

// StatsLookup resolves the community fit difficulty for a chart. The second
// return is false when no fit statistic exists, which is normal.
type StatsLookup interface {
	FitDiff(songID, levelIndex int) (float64, bool)
}

// Enrich fills the derived fields of a record: missing ds/type from the
// catalog, fit difficulty from chart statistics, version flags, and the
// computed rating. It never fails; unresolvable records fall back to ds=0 and
// type DX so a fetch always produces a value.
func Enrich(rec domain.ScoreRecord, catalog CatalogLookup, stats StatsLookup) domain.EnrichedRecord {
	song, found := domain.Song{}, false
	if catalog != nil {
		song, found = catalog.SongByNumber(rec.SongID)
	}

	if rec.DS == 0 && found && rec.LevelIndex >= 0 && rec.LevelIndex < len(song.DS) {
		rec.DS = song.DS[rec.LevelIndex]
	}
	if rec.Type == "" && found {
		if version.IsDXSeries(song.BasicInfo.From) || numericID(song.ID) > dxIDThreshold {
			rec.Type = "DX"
		} else if song.Type != "" {
			rec.Type = song.Type
		} else {
			rec.Type = "SD"
		}
	}
	if rec.Type == "" {
		rec.Type = "DX"
	}

	out := domain.EnrichedRecord{
		ScoreRecord: rec,
		FitDiff:     rec.DS,
	}

	if stats != nil {
		if fit, ok := stats.FitDiff(rec.SongID, rec.LevelIndex); ok {
			out.FitDiff = fit
			out.IsFit = true
		}
	}

	if found {
		out.IsNew = song.BasicInfo.IsNew
		out.Version = version.Name(song.BasicInfo.From)
	}

	out.Ra = Compute(out.FitDiff, rec.Achievements)
	return out
}

func numericID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0
	}
	return n
}
