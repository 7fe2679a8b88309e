// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// maxBodyInError bounds how much of a provider response is quoted in errors.
const maxBodyInError = 512

// StatusError classifies a non-2xx provider response. 401 and 403 map to
// domain.ErrAuthentication; everything else maps to
// domain.ErrUpstreamUnavailable.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBodyInError {
		msg = msg[:maxBodyInError] + "..."
	}

	sentinel := domain.ErrUpstreamUnavailable
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		sentinel = domain.ErrAuthentication
	}
	if msg == "" {
		return fmt.Errorf("%w: %s returned status %d", sentinel, provider, status)
	}
	return fmt.Errorf("%w: %s returned status %d: %s", sentinel, provider, status, msg)
}

// TransportError classifies a failed round trip. Context cancellation is
// passed through unchanged.
func TransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s request failed: %w", domain.ErrUpstreamUnavailable, provider, err)
}

// ToFloat32 converts a provider vector.
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
