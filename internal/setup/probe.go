package setup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// PingProvider performs a minimal authenticated GET against the provider's
// status endpoint to verify the URL and token before anything is written.
func PingProvider(ctx context.Context, providerURL, token string) error {
	endpoint := strings.TrimRight(providerURL, "/") + "/api/v1/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", providerURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("invalid access token (HTTP 401)")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected HTTP %d from %s", resp.StatusCode, providerURL)
	}
	return nil
}
