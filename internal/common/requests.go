package common

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type RestClientOptions struct {
	BaseURL  string
	Timeout  time.Duration
	Insecure bool
}

// NewRestClient builds a resty client with a cookie jar, which is how
// session based APIs keep their login.
func NewRestClient(opts RestClientOptions) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	if opts.Insecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	return client
}

func MakeRequestFromBuilder(restBuilder *resty.Request, method string, finalUrl string) (*resty.Response, error) {

	switch strings.ToUpper(method) {
	case http.MethodGet:
		return restBuilder.Get(finalUrl)
	case http.MethodPost:
		return restBuilder.Post(finalUrl)
	case http.MethodPut:
		return restBuilder.Put(finalUrl)
	case http.MethodDelete:
		return restBuilder.Delete(finalUrl)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s. Ensure you're using the http const", method)
	}

}
