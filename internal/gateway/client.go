// Package gateway talks to the external payment processor: transaction
// initialization, server-to-server verification and webhook signatures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "truthgate-api/pkg/errors"

	"github.com/pkg/errors"
)

// Client is the subset of the gateway API the donation flow relies on.
type Client interface {
	Verify(ctx context.Context, reference string) (Verification, error)
	Initialize(ctx context.Context, req InitRequest) (InitResult, error)
}

// TransactionID accepts both string and numeric ids from the gateway.
type TransactionID string

func (id *TransactionID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = TransactionID(n.String())
	return nil
}

type Verification struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        TransactionID `json:"id"`
		Status    string        `json:"status"`
		Reference string        `json:"reference"`
		Amount    int64         `json:"amount"`
		Currency  string        `json:"currency"`
	} `json:"data"`
}

// Successful reports whether the gateway itself considers the charge settled.
func (v Verification) Successful() bool {
	return v.Status && strings.EqualFold(v.Data.Status, "success")
}

type InitRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type InitResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type HTTPClient struct {
	baseURL    string
	secretKey  string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPClient(baseURL, secretKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Verify(ctx context.Context, reference string) (Verification, error) {
	var out Verification
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return Verification{}, errors.Wrapf(err, "verify %s", reference)
	}
	return out, nil
}

func (c *HTTPClient) Initialize(ctx context.Context, req InitRequest) (InitResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return InitResult{}, errors.Wrap(err, "encode initialize request")
	}

	var out InitResult
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", body, &out); err != nil {
		return InitResult{}, errors.Wrapf(err, "initialize %s", req.Reference)
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return InitResult{}, errors.Wrapf(apperrors.ErrGatewayUnavailable, "initialize %s rejected: %s", req.Reference, out.Message)
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err), "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %s: %s", apperrors.ErrGatewayUnavailable, strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperrors.ErrGatewayUnavailable, err)
	}
	return nil
}
