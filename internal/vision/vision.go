package vision

import (
	"context"

	"hercules_trading/internal/models"
)

// Extractor turns a trade screenshot into a draft position. A nil draft with
// a nil error means "could not extract"; callers report that to the user.
type Extractor interface {
	Extract(ctx context.Context, imageBytes []byte) (*models.StagedDraft, error)
}
