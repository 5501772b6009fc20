package ports

import "net/http"

// HTTPClient performs outbound requests for fetchers.
//
//go:generate mockgen -source=http.go -destination=mocks/mock_http.go -package=mocks
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
