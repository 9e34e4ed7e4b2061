package overlay

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeGoRegular(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o600); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return path
}

func TestResolveFontUsesConfiguredFile(t *testing.T) {
	t.Parallel()

	path := writeGoRegular(t)
	parsed, source, err := ResolveFont(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed == nil || source != path {
		t.Fatalf("expected configured font, got source %q", source)
	}
}

func TestResolveFontFallsBackWithWarning(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.ttf")
	parsed, source, err := ResolveFont("", []string{missing})
	if parsed == nil || source != FallbackFontSource {
		t.Fatalf("expected go regular fallback, got source %q", source)
	}
	if !errors.Is(err, ErrNoJapaneseGlyphs) {
		t.Fatalf("expected ErrNoJapaneseGlyphs, got %v", err)
	}
}

func TestResolveFontSkipsCandidatesWithoutJapanese(t *testing.T) {
	t.Parallel()

	latin := writeGoRegular(t)
	_, source, err := ResolveFont("", []string{latin})
	if source != FallbackFontSource || !errors.Is(err, ErrNoJapaneseGlyphs) {
		t.Fatalf("expected latin-only candidate to be skipped, got %q, %v", source, err)
	}
}

func TestResolveFontReportsUnreadableConfiguredFile(t *testing.T) {
	t.Parallel()

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o600); err != nil {
		t.Fatalf("write font: %v", err)
	}
	parsed, source, err := ResolveFont(bad, nil)
	if parsed == nil || source != FallbackFontSource {
		t.Fatalf("expected fallback after unreadable font, got %q", source)
	}
	if err == nil || !errors.Is(err, ErrNoJapaneseGlyphs) {
		t.Fatalf("expected load failure and fallback in error, got %v", err)
	}
}

func TestFallbackFontLacksJapanese(t *testing.T) {
	t.Parallel()

	parsed, err := fallbackFont()
	if err != nil {
		t.Fatalf("fallback font: %v", err)
	}
	if MissingGlyphs(parsed, "HHHH") != 0 {
		t.Fatalf("expected latin glyphs in go regular")
	}
	if got := MissingGlyphs(parsed, "こんにちは終わり"); got != 8 {
		t.Fatalf("expected 8 missing glyphs, got %d", got)
	}
}

func TestResolveFontSystemDefaultsRenderJapanese(t *testing.T) {
	t.Parallel()

	parsed, source, err := ResolveFont("", DefaultFontPaths)
	if errors.Is(err, ErrNoJapaneseGlyphs) {
		t.Skip("no japanese system font installed")
	}
	if missing := MissingGlyphs(parsed, "こんにちは終わり"); missing != 0 {
		t.Fatalf("font %s lacks %d glyphs", source, missing)
	}
}
