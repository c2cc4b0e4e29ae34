package api

import (
	"fmt"
	"net/url"
	"sync"
)

const DefaultCover = "/default_cover.jpg"

// CoverURL derives the cover art URL for a song. DX chart ids in
// (10000, 11000] share artwork with their standard counterpart. The image is
// routed through the weserv proxy so the board exporter can read the pixels.
func CoverURL(songID int) string {
	id := songID
	if id > 10000 && id <= 11000 {
		id -= 10000
	}
	original := fmt.Sprintf("https://www.diving-fish.com/covers/%05d.png", id)
	return "https://images.weserv.nl/?url=" + url.QueryEscape(original)
}

// CoverResolver remembers cover URLs that failed to load so they resolve to
// the bundled default from then on.
type CoverResolver struct {
	mu     sync.RWMutex
	failed map[string]struct{}
}

func NewCoverResolver() *CoverResolver {
	return &CoverResolver{failed: make(map[string]struct{})}
}

func (c *CoverResolver) MarkFailed(coverURL string) {
	if coverURL == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[coverURL] = struct{}{}
}

func (c *CoverResolver) Resolve(coverURL string) string {
	if coverURL == "" {
		return DefaultCover
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, bad := c.failed[coverURL]; bad {
		return DefaultCover
	}
	return coverURL
}

func (c *CoverResolver) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = make(map[string]struct{})
}
