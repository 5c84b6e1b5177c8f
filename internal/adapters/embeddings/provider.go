package embeddings

import "context"

// Provider generates vector embeddings for text.
type Provider interface {
	// GenerateEmbedding creates a vector embedding for the given text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int

	// Name returns the model name, used for cache keys and search filtering.
	Name() string
}
