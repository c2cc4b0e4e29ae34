package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverURLReducesDXIDs(t *testing.T) {
	escaped := url.QueryEscape("https://www.diving-fish.com/covers/00533.png")
	assert.Equal(t, "https://images.weserv.nl/?url="+escaped, CoverURL(10533))
	// same artwork for the standard chart id
	assert.Equal(t, CoverURL(533), CoverURL(10533))
}

func TestCoverURLKeepsHighIDs(t *testing.T) {
	escaped := url.QueryEscape("https://www.diving-fish.com/covers/11102.png")
	assert.Equal(t, "https://images.weserv.nl/?url="+escaped, CoverURL(11102))
}

func TestCoverResolverFallsBackAfterFailure(t *testing.T) {
	r := NewCoverResolver()
	u := CoverURL(42)

	assert.Equal(t, u, r.Resolve(u))
	r.MarkFailed(u)
	assert.Equal(t, DefaultCover, r.Resolve(u))

	r.Reset()
	assert.Equal(t, u, r.Resolve(u))
}

func TestCoverResolverEmptyURL(t *testing.T) {
	r := NewCoverResolver()
	assert.Equal(t, DefaultCover, r.Resolve(""))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, isDigits("123456"))
	assert.False(t, isDigits(""))
	assert.False(t, isDigits("12a4"))
	assert.False(t, isDigits("token-abc"))
}
