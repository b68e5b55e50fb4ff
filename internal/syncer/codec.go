package syncer

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-matcher/internal/types"
)

func marshalResume(r *types.Resume) (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal resume: %w", err)
	}
	return string(raw), nil
}
