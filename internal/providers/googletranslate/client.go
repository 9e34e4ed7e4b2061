package googletranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://www.googleapis.com/language/translate/v2"
	translatedField = "translatedText"
)

// Config controls the translate v2 HTTP client.
type Config struct {
	Endpoint    string
	APIKey      string
	Source      string
	Target      string
	EncodeQuery bool
	Timeout     time.Duration
}

// Client implements ports.Translator against the translate v2 REST endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Source == "" {
		cfg.Source = "ja"
	}
	if cfg.Target == "" {
		cfg.Target = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Translate fetches the translation of text. An empty string with a nil error
// means the response carried no translatedText field.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildRequestURL(c.cfg, text), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build translate request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translate response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translate status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	translated, err := extractTranslatedText(body)
	if err != nil {
		return "", fmt.Errorf("malformed translate response: %w", err)
	}
	return translated, nil
}

// buildRequestURL concatenates the query string. Without EncodeQuery the text
// is embedded raw, which breaks on reserved characters.
func buildRequestURL(cfg Config, text string) string {
	q := text
	if cfg.EncodeQuery {
		q = url.QueryEscape(text)
	}

	var b strings.Builder
	b.WriteString(cfg.Endpoint)
	if strings.Contains(cfg.Endpoint, "?") {
		b.WriteString("&key=")
	} else {
		b.WriteString("?key=")
	}
	b.WriteString(cfg.APIKey)
	b.WriteString("&source=")
	b.WriteString(cfg.Source)
	b.WriteString("&target=")
	b.WriteString(cfg.Target)
	b.WriteString("&q=")
	b.WriteString(q)
	return b.String()
}

// extractTranslatedText walks the JSON token stream so the field is found at
// any depth, both in {"translatedText":...} and in the v2 data.translations
// envelope. The last occurrence in document order wins.
func extractTranslatedText(body []byte) (string, error) {
	type frame struct {
		delim   json.Delim
		wantKey bool
		key     string
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	var (
		stack []frame
		found string
	)
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].delim == '{' {
			stack[n-1].wantKey = true
		}
	}

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		if n := len(stack); n > 0 && stack[n-1].wantKey {
			if delim, ok := token.(json.Delim); ok && delim == '}' {
				stack = stack[:n-1]
				valueDone()
				continue
			}
			key, _ := token.(string)
			stack[n-1].key = key
			stack[n-1].wantKey = false
			continue
		}

		switch value := token.(type) {
		case json.Delim:
			switch value {
			case '{':
				stack = append(stack, frame{delim: value, wantKey: true})
			case '[':
				stack = append(stack, frame{delim: value})
			case ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}
			continue
		case string:
			if n := len(stack); n > 0 && stack[n-1].delim == '{' && stack[n-1].key == translatedField {
				found = value
			}
		}
		valueDone()
	}
	if len(stack) > 0 {
		return "", io.ErrUnexpectedEOF
	}

	return found, nil
}
