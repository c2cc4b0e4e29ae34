// Package version is the static catalog of game releases. The prober API
// reports a song's origin as the release id string; this package maps it to a
// display name, an abbreviation and the "current version" flag used by the
// best-50 split.
package version

import "strings"

type Release struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Abbr      string `json:"abbr"`
	IsCurrent bool   `json:"isCurrent"`
}

// dxSeriesPrefix marks the start of the DX sub-series. Every release from
// "maimai でらっくす" onward is a DX cabinet release.
const dxSeriesPrefix = "maimai でらっくす"

var releases = []Release{
	{ID: "maimai", Name: "maimai (初代)", Abbr: ""},
	{ID: "maimai PLUS", Name: "maimai PLUS", Abbr: "真"},
	{ID: "maimai GreeN", Name: "maimai GreeN", Abbr: "超"},
	{ID: "maimai GreeN PLUS", Name: "maimai GreeN PLUS", Abbr: "檄"},
	{ID: "maimai ORANGE", Name: "maimai ORANGE", Abbr: "橙"},
	{ID: "maimai ORANGE PLUS", Name: "maimai ORANGE PLUS", Abbr: "晓"},
	{ID: "maimai PiNK", Name: "maimai PiNK", Abbr: "桃"},
	{ID: "maimai PiNK PLUS", Name: "maimai PiNK PLUS", Abbr: "樱"},
	{ID: "maimai MURASAKi", Name: "maimai MURASAKi", Abbr: "紫"},
	{ID: "maimai MURASAKi PLUS", Name: "maimai MURASAKi PLUS", Abbr: "堇"},
	{ID: "maimai MiLK", Name: "maimai MiLK", Abbr: "白"},
	{ID: "maimai MiLK PLUS", Name: "maimai MiLK PLUS", Abbr: "雪"},
	{ID: "maimai FiNALE", Name: "maimai FiNALE", Abbr: "辉"},
	{ID: "maimai でらっくす", Name: "舞萌DX (2019)", Abbr: "熊"},
	{ID: "maimai でらっくす PLUS", Name: "舞萌DX PLUS", Abbr: "华"},
	{ID: "maimai でらっくす Splash", Name: "舞萌DX 2021 (Splash)", Abbr: "爽"},
	{ID: "maimai でらっくす Splash PLUS", Name: "舞萌DX 2021 (Splash+)", Abbr: "煌"},
	{ID: "maimai でらっくす UNiVERSE", Name: "舞萌DX 2022 (UNiVERSE)", Abbr: "宙"},
	{ID: "maimai でらっくす UNiVERSE PLUS", Name: "舞萌DX 2022 (UNiVERSE+)", Abbr: "星"},
	{ID: "maimai でらっくす FESTiVAL", Name: "舞萌DX 2023 (FESTiVAL)", Abbr: "祭"},
	{ID: "maimai でらっくす FESTiVAL PLUS", Name: "舞萌DX 2023 (FESTiVAL+)", Abbr: "祝"},
	{ID: "maimai でらっくす BUDDiES", Name: "舞萌DX 2024 (BUDDiES)", Abbr: "双"},
	{ID: "maimai でらっくす BUDDiES PLUS", Name: "舞萌DX 2024 (BUDDiES+)", Abbr: "宴"},
	{ID: "maimai でらっくす PRiSM", Name: "舞萌DX 2025 (PRiSM)", Abbr: "镜", IsCurrent: true},
}

var byID = func() map[string]Release {
	m := make(map[string]Release, len(releases))
	for _, r := range releases {
		m[r.ID] = r
	}
	return m
}()

// Releases returns the full catalog in release order.
func Releases() []Release {
	out := make([]Release, len(releases))
	copy(out, releases)
	return out
}

// Name returns the display name for a release id, or the id itself when it is
// not in the catalog.
func Name(id string) string {
	if r, ok := byID[id]; ok {
		return r.Name
	}
	return id
}

// IsCurrent reports whether the release is the currently active one. Unknown
// ids are not current.
func IsCurrent(id string) bool {
	return byID[id].IsCurrent
}

// Abbr returns the single-character abbreviation for a release id.
func Abbr(id string) string {
	return byID[id].Abbr
}

// IsDXSeries reports whether the release belongs to the DX sub-series.
func IsDXSeries(id string) bool {
	return strings.HasPrefix(id, dxSeriesPrefix)
}
