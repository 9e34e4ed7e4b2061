package face

import (
	"encoding/json"
	"fmt"

	"voiceballoon/internal/domain"
)

// ParseBatch decodes a face feed payload. Both {"faces":[...]} and a bare
// array of detections are accepted.
func ParseBatch(payload []byte) (domain.FaceBatch, error) {
	var batch domain.FaceBatch
	if err := json.Unmarshal(payload, &batch); err == nil {
		return batch, nil
	}

	var faces []domain.FaceDetection
	if err := json.Unmarshal(payload, &faces); err != nil {
		return domain.FaceBatch{}, fmt.Errorf("invalid face payload: %w", err)
	}
	return domain.FaceBatch{Faces: faces}, nil
}
