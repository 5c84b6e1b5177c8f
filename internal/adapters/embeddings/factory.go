package embeddings

import (
	"sync"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/config"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

// Factory lazily initializes a shared embedding provider. The provider is
// created on first use and reused by every retriever that needs it, so the
// underlying model client is a scoped singleton rather than ambient global
// state.
type Factory struct {
	cfg config.EmbeddingsConfig

	once     sync.Once
	provider Provider
	err      error
}

// NewFactory creates an embedding provider factory
func NewFactory(cfg config.EmbeddingsConfig) *Factory {
	return &Factory{cfg: cfg}
}

// Provider returns the shared embedding provider, initializing it on first call.
// Safe for concurrent use.
func (f *Factory) Provider() (Provider, error) {
	f.once.Do(func() {
		f.provider, f.err = NewOpenAIProvider(f.cfg.APIKey, f.cfg.Model, f.cfg.Timeout)
	})
	if f.err != nil {
		return nil, errors.Wrap(f.err, "init embedding provider")
	}
	return f.provider, nil
}
