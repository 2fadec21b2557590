package native

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// builtinFamily is the family of the fonts every library starts with.
const builtinFamily = "go"

// face is one loaded font file.
type face struct {
	name   string // registered name (file name or AddFont name)
	family string // lower-cased family from the name table
	bold   bool
	italic bool

	sfnt *sfnt.Font
	// shaping is the go-text view of the same data. Nil when go-text could
	// not parse the font; shaping then falls back to sfnt advances.
	shaping *gotext.Font

	// emScale converts a script font size to pixels per em so that
	// ascender+descender spans the requested size.
	emScale float64
}

// parseFace parses font data into a face.
func parseFace(name string, data []byte) (*face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("native: failed to parse font %q: %w", name, err)
	}

	fc := &face{name: name, sfnt: f, emScale: 1}

	var buf sfnt.Buffer
	if fam, err := f.Name(&buf, sfnt.NameIDFamily); err == nil && fam != "" {
		fc.family = strings.ToLower(fam)
	} else {
		fc.family = strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	}
	if sub, err := f.Name(&buf, sfnt.NameIDSubfamily); err == nil {
		sub = strings.ToLower(sub)
		fc.bold = strings.Contains(sub, "bold") || strings.Contains(sub, "black") || strings.Contains(sub, "heavy")
		fc.italic = strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
	}

	upem := fixed.Int26_6(f.UnitsPerEm()) << 6
	if m, err := f.Metrics(&buf, upem, font.HintingNone); err == nil {
		if span := m.Ascent + m.Descent; span > 0 {
			fc.emScale = float64(upem) / float64(span)
		}
	}

	if tf, err := gotext.ParseTTF(bytes.NewReader(data)); err == nil {
		fc.shaping = tf.Font
	}

	return fc, nil
}

// fontSet is a concurrency-safe collection of faces.
type fontSet struct {
	mu    sync.RWMutex
	faces []*face
}

func (s *fontSet) add(fc *face) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faces = append(s.faces, fc)
}

func (s *fontSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.faces)
}

// lookup returns the face of family that best matches bold and italic,
// or nil when the family is unknown.
func (s *fontSet) lookup(family string, bold, italic bool) *face {
	s.mu.RLock()
	defer s.mu.RUnlock()

	family = strings.ToLower(strings.TrimSpace(family))
	var best *face
	bestScore := -1
	for _, fc := range s.faces {
		if fc.family != family && !strings.EqualFold(fc.name, family) {
			continue
		}
		score := 0
		if fc.bold == bold {
			score += 2
		}
		if fc.italic == italic {
			score++
		}
		if score > bestScore {
			best, bestScore = fc, score
		}
	}
	return best
}

// builtinFaces parses the embedded Go fonts.
func builtinFaces() []*face {
	sources := []struct {
		name string
		data []byte
	}{
		{"goregular.ttf", goregular.TTF},
		{"gobold.ttf", gobold.TTF},
		{"goitalic.ttf", goitalic.TTF},
		{"gobolditalic.ttf", gobolditalic.TTF},
	}
	faces := make([]*face, 0, len(sources))
	for _, src := range sources {
		fc, err := parseFace(src.name, src.data)
		if err != nil {
			// The embedded fonts are known good.
			panic(err)
		}
		fc.family = builtinFamily
		faces = append(faces, fc)
	}
	return faces
}

var (
	builtinOnce sync.Once
	builtin     []*face
)

func builtinSet() []*face {
	builtinOnce.Do(func() { builtin = builtinFaces() })
	return builtin
}

// fontFileExts lists the extensions picked up from a fonts directory.
var fontFileExts = []string{".ttf", ".otf"}

// loadFontFiles parses the fonts configured by files and dir. Unreadable
// or unparsable files are logged and skipped.
func loadFontFiles(logger *slog.Logger, dir string, files []string) []*face {
	paths := slices.Clone(files)
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("native: cannot read fonts dir", "dir", dir, "err", err)
		}
		for _, e := range entries {
			if e.IsDir() || !slices.Contains(fontFileExts, strings.ToLower(filepath.Ext(e.Name()))) {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	var faces []*face
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("native: cannot read font", "path", p, "err", err)
			continue
		}
		fc, err := parseFace(filepath.Base(p), data)
		if err != nil {
			logger.Warn("native: skipping font", "path", p, "err", err)
			continue
		}
		faces = append(faces, fc)
	}
	return faces
}
