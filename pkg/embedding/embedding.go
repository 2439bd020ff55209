package embedding

import (
	"context"
	"fmt"

	"github.com/ctxhub/ctxhub/pkg/model"
)

// Provider maps text to fixed-dimension vectors. The engine owns no model
// state; the provider is constructed by the caller and passed in at
// initialization, and its dimension is constant for the provider's lifetime.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// wrapErr tags provider failures so callers can classify them.
func wrapErr(err error) error {
	return fmt.Errorf("%w: %v", model.ErrEmbedding, err)
}
