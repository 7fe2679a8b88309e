package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
)

// probeText is embedded once to learn the model's real output size.
const probeText = "course catalog probe"

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks an embedding configuration against the live provider.
type ConfigValidator struct {
	create func(domain.AIProvider, *domain.EmbeddingSettings) (driven.EmbeddingService, error)
}

// NewConfigValidator creates a validator that talks to the real providers.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{create: CreateEmbeddingService}
}

// ValidateEmbedding pings the provider and embeds a probe text. A model whose
// vectors differ from the configured dimension fails with ErrDimensionMismatch,
// since every stored record must share one dimension.
func (v *ConfigValidator) ValidateEmbedding(provider domain.AIProvider, settings *domain.EmbeddingSettings) error {
	svc, err := v.create(provider, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", provider, err)
	}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe embedding with %s: %w", settings.Model, err)
	}
	if settings.Dimensions > 0 && len(vec) != settings.Dimensions {
		return fmt.Errorf("model %s: %w", settings.Model, domain.DimensionError(settings.Dimensions, len(vec)))
	}
	return nil
}
