package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnlyNewestReleaseIsCurrent(t *testing.T) {
	current := 0
	for _, r := range Releases() {
		if r.IsCurrent {
			current++
			assert.Equal(t, "maimai でらっくす PRiSM", r.ID)
		}
	}
	assert.Equal(t, 1, current)
}

func TestNameFallsBackToRawID(t *testing.T) {
	assert.Equal(t, "舞萌DX (2019)", Name("maimai でらっくす"))
	assert.Equal(t, "maimai UNKNOWN", Name("maimai UNKNOWN"))
}

func TestIsCurrent(t *testing.T) {
	assert.True(t, IsCurrent("maimai でらっくす PRiSM"))
	assert.False(t, IsCurrent("maimai でらっくす BUDDiES"))
	assert.False(t, IsCurrent("not a release"))
}

func TestAbbr(t *testing.T) {
	assert.Equal(t, "真", Abbr("maimai PLUS"))
	assert.Equal(t, "", Abbr("maimai"))
	assert.Equal(t, "", Abbr("nope"))
}

func TestIsDXSeries(t *testing.T) {
	assert.True(t, IsDXSeries("maimai でらっくす Splash"))
	assert.True(t, IsDXSeries("maimai でらっくす"))
	assert.False(t, IsDXSeries("maimai FiNALE"))
	assert.False(t, IsDXSeries("maimai PLUS"))
}
