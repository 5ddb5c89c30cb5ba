// Package colors assigns Google Calendar color ids to task categories so
// that every block of the same category shows up in the same color.
package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	cacheFile = "category_colors.json"

	// UncategorizedColor is graphite, used for tasks without a category.
	UncategorizedColor = "8"
	// paletteSize is the number of event colors Google Calendar offers.
	paletteSize = 11
)

type CategoryColor struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache remembers which color each category was given. When every
// color is taken, the least recently used category gives up its color.
type ColorCache struct {
	Path       string                    `json:"-"`
	Categories map[string]*CategoryColor `json:"categories"`
	dirty      bool
	now        func() time.Time
}

// NewColorCache loads the cache from dir, creating an empty one if the file
// does not exist yet.
func NewColorCache(dir string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:       filepath.Join(dir, cacheFile),
		Categories: make(map[string]*CategoryColor),
		now:        time.Now,
	}

	if _, err := os.Stat(cache.Path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Categories)
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(c.Categories); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// ColorID returns the color for a category, assigning one if needed.
func (c *ColorCache) ColorID(category string) string {
	if category == "" || category == "Uncategorized" {
		return UncategorizedColor
	}

	if state, ok := c.Categories[category]; ok {
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assign(category)
}

func (c *ColorCache) assign(category string) string {
	used := make(map[string]bool, len(c.Categories))
	for _, s := range c.Categories {
		used[s.ColorID] = true
	}

	color := ""
	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			color = id
			break
		}
	}

	if color == "" {
		var oldest string
		var oldestTime time.Time
		for name, s := range c.Categories {
			if oldest == "" || s.LastUsed.Before(oldestTime) {
				oldest, oldestTime = name, s.LastUsed
			}
		}
		color = c.Categories[oldest].ColorID
		delete(c.Categories, oldest)
	}

	c.Categories[category] = &CategoryColor{ColorID: color, LastUsed: c.now()}
	c.dirty = true
	return color
}
