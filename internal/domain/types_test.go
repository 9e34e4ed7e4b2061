package domain

import "testing"

func TestRecognitionErrorCodeRecoverable(t *testing.T) {
	t.Parallel()

	recoverable := map[RecognitionErrorCode]bool{
		RecognitionErrorAudio:                   false,
		RecognitionErrorClient:                  false,
		RecognitionErrorInsufficientPermissions: false,
		RecognitionErrorNetwork:                 false,
		RecognitionErrorNetworkTimeout:          false,
		RecognitionErrorNoMatch:                 true,
		RecognitionErrorRecognizerBusy:          true,
		RecognitionErrorServer:                  false,
		RecognitionErrorSpeechTimeout:           true,
	}
	for code, want := range recoverable {
		if got := code.Recoverable(); got != want {
			t.Fatalf("%s: expected recoverable=%v", code, want)
		}
	}
}

func TestUtteranceBestAndKeywords(t *testing.T) {
	t.Parallel()

	source := []string{"こんにちは", "終わり"}
	u := NewUtterance(source...)
	source[0] = "mutated"

	if u.Best() != "こんにちは" {
		t.Fatalf("expected copied candidates, got %q", u.Best())
	}
	if !u.ContainsAny(DefaultStopKeywords) {
		t.Fatalf("expected stop keyword in second candidate")
	}
	if u.ContainsAny([]string{"終わ"}) {
		t.Fatalf("expected exact match only")
	}
	if NewUtterance().Best() != "" {
		t.Fatalf("expected empty best for empty utterance")
	}
}

func TestRecognitionEventTerminal(t *testing.T) {
	t.Parallel()

	for kind, want := range map[RecognitionEventKind]bool{
		RecognitionEventReady:       false,
		RecognitionEventBeginning:   false,
		RecognitionEventRms:         false,
		RecognitionEventPartial:     false,
		RecognitionEventEndOfSpeech: false,
		RecognitionEventResults:     true,
		RecognitionEventError:       true,
	} {
		if got := (RecognitionEvent{Kind: kind}).Terminal(); got != want {
			t.Fatalf("%s: expected terminal=%v", kind, want)
		}
	}
}
