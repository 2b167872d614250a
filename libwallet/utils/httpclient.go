package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"decred.org/dcrwallet/v2/errors"
)

const (
	// Default http client timeout in secs.
	defaultHTTPClientTimeout = 10 * time.Second
)

type (
	// Client is the base for http/https calls
	Client struct {
		httpClient *http.Client
	}

	// ReqConfig models the configuration options for requests.
	ReqConfig struct {
		Payload []byte
		Method  string
		HTTPURL string
		Query   url.Values
		// If IsRetByte is set to true, client.Do will delegate
		// response processing to caller.
		IsRetByte bool
	}
)

// NewClient configures and return a new client
func NewClient() (c *Client) {
	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultHTTPClientTimeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

func (c *Client) requestFilter(ctx context.Context, reqConfig *ReqConfig) (req *http.Request, err error) {
	rawURL := reqConfig.HTTPURL
	if len(reqConfig.Query) > 0 {
		rawURL = rawURL + "?" + reqConfig.Query.Encode()
	}

	req, err = http.NewRequestWithContext(ctx, reqConfig.Method, rawURL, bytes.NewBuffer(reqConfig.Payload))
	if err != nil {
		return
	}
	if reqConfig.Method == http.MethodPost || reqConfig.Method == http.MethodPut {
		req.Header.Add("Content-Type", "application/json;charset=utf-8")
	}
	req.Header.Add("Accept", "application/json")
	return
}

// Do prepare and process HTTP request to backend resources. When
// reqConfig.IsRetByte is set, response must be a *[]byte and receives the raw
// body.
func (c *Client) Do(ctx context.Context, reqConfig *ReqConfig, response interface{}) error {
	if _, err := url.ParseRequestURI(reqConfig.HTTPURL); err != nil {
		return fmt.Errorf("error: url not properly constituted: %v", err)
	}

	req, err := c.requestFilter(ctx, reqConfig)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error: status: %v resp: %s", resp.Status, body)
	}

	// if IsRetByte is option is true. Response from the resource queried
	// is not in json format, don't unmarshal return response byte slice to
	// the caller for further processing.
	if reqConfig.IsRetByte {
		b, ok := response.(*[]byte)
		if !ok {
			return errors.New("error: IsRetByte requires a *[]byte response")
		}
		*b = append((*b)[:0], body...)
		return nil
	}

	return json.Unmarshal(body, response)
}

var defaultClient = NewClient()

// HTTPRequest sends reqConfig through the shared client.
func HTTPRequest(ctx context.Context, reqConfig *ReqConfig, response interface{}) error {
	return defaultClient.Do(ctx, reqConfig, response)
}
