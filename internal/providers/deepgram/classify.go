package deepgram

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"voiceballoon/internal/domain"
)

func classifyDialError(err error, resp *http.Response) domain.RecognitionErrorCode {
	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return domain.RecognitionErrorInsufficientPermissions
		case resp.StatusCode == http.StatusTooManyRequests:
			return domain.RecognitionErrorRecognizerBusy
		case resp.StatusCode >= 500:
			return domain.RecognitionErrorServer
		case resp.StatusCode >= 400:
			return domain.RecognitionErrorClient
		}
	}
	if isTimeout(err) {
		return domain.RecognitionErrorNetworkTimeout
	}
	return domain.RecognitionErrorNetwork
}

func classifyReadError(err error) domain.RecognitionErrorCode {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.ClosePolicyViolation:
			return domain.RecognitionErrorInsufficientPermissions
		case websocket.CloseTryAgainLater:
			return domain.RecognitionErrorRecognizerBusy
		case websocket.CloseInternalServerErr:
			return domain.RecognitionErrorServer
		}
	}
	if isTimeout(err) {
		return domain.RecognitionErrorNetworkTimeout
	}
	return domain.RecognitionErrorNetwork
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
