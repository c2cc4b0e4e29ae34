package domain

// ScoreRecord is a single chart attempt as returned by the prober API.
// Records are replaced wholesale on every successful fetch.
type ScoreRecord struct {
	SongID       int     `json:"song_id"`
	Title        string  `json:"title"`
	LevelIndex   int     `json:"level_index"`
	Level        string  `json:"level"`
	LevelLabel   string  `json:"level_label"`
	DS           float64 `json:"ds"`
	Achievements float64 `json:"achievements"`
	Rate         string  `json:"rate"`
	FC           string  `json:"fc"`
	FS           string  `json:"fs"`
	DXScore      int     `json:"dxScore"`
	Type         string  `json:"type"` // "DX" or "SD"
}

// EnrichedRecord is a ScoreRecord with derived rating fields filled in.
// It is recomputed on every aggregation pass and never persisted.
type EnrichedRecord struct {
	ScoreRecord

	FitDiff float64 `json:"fit_diff"`
	IsFit   bool    `json:"is_fit"`
	Ra      int     `json:"ra"`
	IsNew   bool    `json:"is_new"`
	Version string  `json:"version"`
}

// Song is one entry of the static song catalog.
type Song struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	DS        []float64 `json:"ds"`
	Level     []string  `json:"level"`
	Cids      []int     `json:"cids"`
	BasicInfo BasicInfo `json:"basic_info"`
}

type BasicInfo struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Genre       string `json:"genre"`
	BPM         int    `json:"bpm"`
	ReleaseDate string `json:"release_date"`
	From        string `json:"from"`
	IsNew       bool   `json:"is_new"`
}

// ChartStat is the community-aggregated statistic for one chart. FitDiff is
// nil when too few plays exist for the chart; callers fall back to the raw DS.
type ChartStat struct {
	Count   float64  `json:"cnt"`
	Diff    string   `json:"diff"`
	FitDiff *float64 `json:"fit_diff"`
	Avg     float64  `json:"avg"`
	AvgDX   float64  `json:"avg_dx"`
	StdDev  float64  `json:"std_dev"`
}

// PlayerProfile is the session snapshot of the bound player. Replaced
// wholesale on fetch, cleared wholesale on sign-out.
type PlayerProfile struct {
	Nickname   string `json:"nickname"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	CourseRank int    `json:"course_rank"`
	ClassRank  int    `json:"class_rank"`
}

// BoardConfig is the display configuration of a preference board.
type BoardConfig struct {
	Theme string `json:"theme"`
	Title string `json:"title"`
}

// BoardCell is one labelled slot of a preference board. Song is nil until the
// player picks one.
type BoardCell struct {
	Label string `json:"label"`
	Song  *Song  `json:"song"`
}

// PreferenceBoard is the payload of one preference archive.
type PreferenceBoard struct {
	Config BoardConfig `json:"config"`
	Cells  []BoardCell `json:"cells"`
}

// Review is one written song review.
type Review struct {
	ID         string  `json:"id"`
	SongID     int     `json:"song_id"`
	LevelIndex int     `json:"level_index"`
	Score      float64 `json:"score"`
	Comment    string  `json:"comment"`
	CreatedAt  int64   `json:"createdAt"`
}

// ReviewList is the payload of one review archive.
type ReviewList struct {
	Reviews []Review `json:"reviews"`
}

// RandomFilters narrows the candidate pool of the chart randomizer. Empty
// version/genre lists mean no restriction.
type RandomFilters struct {
	LevelMin float64  `json:"levelMin"`
	LevelMax float64  `json:"levelMax"`
	Versions []string `json:"versions"`
	Genres   []string `json:"genres"`
	Type     string   `json:"type"` // "ALL", "DX" or "SD"
}

// RandomResult is one randomizer roll.
type RandomResult struct {
	Song      Song    `json:"song"`
	DiffIndex int     `json:"diffIndex"`
	DS        float64 `json:"ds"`
	Level     string  `json:"level"`
	Timestamp int64   `json:"timestamp"`
}
