// Package auth coordinates API-key refresh for providers whose keys expire.
// A RefreshCoordinator retries a rejected request exactly once with a freshly
// exchanged key, serializing the exchange so concurrent requests share one
// refresh instead of stampeding the token endpoint.
package auth
