package overlay

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FallbackFontSource names the bundled Go Regular face.
const FallbackFontSource = "goregular"

// japaneseSample covers hiragana, katakana and kanji.
const japaneseSample = "こんにちはキャンセル終"

// ErrNoJapaneseGlyphs reports that the balloon font renders Japanese as
// boxes.
var ErrNoJapaneseGlyphs = errors.New("balloon font has no japanese glyphs")

// DefaultFontPaths are Japanese-capable system fonts tried in order when no
// font file is configured.
var DefaultFontPaths = []string{
	"/usr/share/fonts/opentype/ipafont-gothic/ipagp.ttf",
	"/usr/share/fonts/truetype/fonts-japanese-gothic.ttf",
	"/usr/share/fonts/truetype/takao-gothic/TakaoPGothic.ttf",
	"/usr/share/fonts/truetype/vlgothic/VL-PGothic-Regular.ttf",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/System/Library/Fonts/ヒラギノ角ゴシック W3.ttc",
	"/Library/Fonts/Arial Unicode.ttf",
	`C:\Windows\Fonts\YuGothM.ttc`,
	`C:\Windows\Fonts\msgothic.ttc`,
}

// LoadFont parses a TrueType/OpenType file, taking the first face of a
// collection.
func LoadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	if parsed, err := opentype.Parse(data); err == nil {
		return parsed, nil
	}
	collection, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	parsed, err := collection.Font(0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return parsed, nil
}

// ResolveFont picks the balloon font: the configured file, else the first of
// candidates that covers Japanese, else Go Regular. The returned font is
// always usable; a non-nil error lists what was skipped and wraps
// ErrNoJapaneseGlyphs when the fallback was taken.
func ResolveFont(path string, candidates []string) (*opentype.Font, string, error) {
	var problems []error
	if path != "" {
		parsed, err := LoadFont(path)
		if err == nil {
			return parsed, path, nil
		}
		problems = append(problems, err)
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		parsed, err := LoadFont(candidate)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if MissingGlyphs(parsed, japaneseSample) == 0 {
			return parsed, candidate, errors.Join(problems...)
		}
	}

	parsed, err := fallbackFont()
	if err != nil {
		return nil, "", err
	}
	problems = append(problems, ErrNoJapaneseGlyphs)
	return parsed, FallbackFontSource, errors.Join(problems...)
}

// MissingGlyphs counts the runes of text that f has no glyph for.
func MissingGlyphs(f *opentype.Font, text string) int {
	var buf sfnt.Buffer
	missing := 0
	for _, r := range text {
		index, err := f.GlyphIndex(&buf, r)
		if err != nil || index == 0 {
			missing++
		}
	}
	return missing
}

func fallbackFont() (*opentype.Font, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balloon font: %w", err)
	}
	return parsed, nil
}
