package llm

import (
	"context"
	"fmt"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// UnavailableClient stands in when the vendor client could not be built,
// so chat requests fail the same way a vendor outage does.
type UnavailableClient struct {
	reason error
}

var _ Generator = (*UnavailableClient)(nil)

// NewUnavailableClient returns a Generator whose calls all fail with reason.
func NewUnavailableClient(reason error) *UnavailableClient {
	return &UnavailableClient{reason: reason}
}

// Model implements Generator.
func (u *UnavailableClient) Model() string {
	return "unavailable"
}

// Generate implements Generator.
func (u *UnavailableClient) Generate(ctx context.Context, req *Request) (*Generation, error) {
	return nil, fmt.Errorf("%w: %w", domain.ErrVendorUnavailable, u.reason)
}
