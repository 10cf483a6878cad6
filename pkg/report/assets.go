package report

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

var ErrFontUnavailable = errors.New("report font unavailable")

// fontCandidates are tried when no font path is configured.
var fontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
}

// Assets caches font and logo bytes by path.
type Assets struct {
	mu    sync.Mutex
	fonts map[string][]byte
	logos map[string][]byte
}

func NewAssets() *Assets {
	return &Assets{fonts: map[string][]byte{}, logos: map[string][]byte{}}
}

var (
	defaultAssets     *Assets
	defaultAssetsOnce sync.Once
)

func DefaultAssets() *Assets {
	defaultAssetsOnce.Do(func() {
		defaultAssets = NewAssets()
	})
	return defaultAssets
}

// Font loads a UTF-8 TrueType font. An empty path searches the system locations.
func (a *Assets) Font(path string) ([]byte, error) {
	if path == "" {
		found := FindSystemFont()
		if found == "" {
			return nil, ErrFontUnavailable
		}
		path = found
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if data, ok := a.fonts[path]; ok {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFontUnavailable, path)
	}
	a.fonts[path] = data
	return data, nil
}

// Logo returns nil when path is empty or unreadable; the header is then drawn without it.
func (a *Assets) Logo(path string) []byte {
	if path == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if data, ok := a.logos[path]; ok {
		return data
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	a.logos[path] = data
	return data
}

func (a *Assets) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fonts = map[string][]byte{}
	a.logos = map[string][]byte{}
}

func FindSystemFont() string {
	for _, p := range fontCandidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
