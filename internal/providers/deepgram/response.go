package deepgram

import (
	"encoding/json"
	"strings"
)

type deepgramAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []deepgramAlternative `json:"alternatives"`
	} `json:"channel"`
}

func parseResponse(payload []byte) (deepgramResponse, error) {
	var response deepgramResponse
	err := json.Unmarshal(payload, &response)
	return response, err
}

// transcripts returns the non-empty alternatives in provider order.
func (r deepgramResponse) transcripts() []string {
	out := make([]string, 0, len(r.Channel.Alternatives))
	for _, alternative := range r.Channel.Alternatives {
		if text := strings.TrimSpace(alternative.Transcript); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// utteranceBuffer joins finalized segments of one utterance. Each segment
// keeps its own alternatives; candidate i takes alternative i of every
// segment, falling back to that segment's last alternative.
type utteranceBuffer struct {
	sep      string
	segments [][]string
}

// segmentSeparator is "" for languages written without word spaces, so a
// segmented "終わり" still matches a stop keyword exactly.
func segmentSeparator(language string) string {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(language)), "-")
	switch base {
	case "ja", "zh":
		return ""
	default:
		return " "
	}
}

func (b *utteranceBuffer) add(alternatives []string) {
	if len(alternatives) == 0 {
		return
	}
	b.segments = append(b.segments, append([]string(nil), alternatives...))
}

func (b *utteranceBuffer) preview(pending string) string {
	parts := make([]string, 0, len(b.segments)+1)
	for _, segment := range b.segments {
		parts = append(parts, segment[0])
	}
	if pending != "" {
		parts = append(parts, pending)
	}
	return strings.Join(parts, b.sep)
}

func (b *utteranceBuffer) candidates(limit int) []string {
	width := 0
	for _, segment := range b.segments {
		width = max(width, len(segment))
	}
	if limit > 0 && width > limit {
		width = limit
	}

	out := make([]string, 0, width)
	seen := make(map[string]struct{}, width)
	for i := 0; i < width; i++ {
		parts := make([]string, 0, len(b.segments))
		for _, segment := range b.segments {
			parts = append(parts, segment[min(i, len(segment)-1)])
		}
		candidate := strings.Join(parts, b.sep)
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
