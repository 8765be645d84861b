package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests with potential proxy/retry logic.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with parameters.
	// Returns the response body as bytes or an error. Non-2xx answers that
	// are not retried come back as *network.StatusError.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
