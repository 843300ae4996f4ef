package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/fitpulse/checkout-gateway/pkg/config"
	"github.com/fitpulse/checkout-gateway/pkg/enums"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

const (
	createIntentPath = "/payment/create-payment-intent"
	recordPath       = "/payment"
)

// CreateIntentRequest asks the platform to create a provider payment intent.
type CreateIntentRequest struct {
	Amount   int    `json:"amount"`
	PlanType string `json:"planType"`
}

// CreateIntentResponse carries the provider's opaque client secret.
type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// TransactionRecord is the platform ledger entry for a completed payment.
// Amount is in decimal currency units, never minor units.
type TransactionRecord struct {
	Amount json.Number             `json:"amount"`
	Method string                  `json:"method"`
	Status enums.TransactionStatus `json:"status"`
	Notes  string                  `json:"notes"`
}

// Client is the REST client for the fitness platform's payment API. Intent
// creation and ledger writes go through separate underlying clients: intent
// creation may retry on transport errors, the ledger write never does.
type Client struct {
	http   *resty.Client
	record *resty.Client
}

// NewClient builds a platform client against the configured base URL.
// RetryCount applies to intent creation only; retrying a ledger write could
// record the same charge twice.
func NewClient(cfg config.PlatformConfig) *Client {
	base := func() *resty.Client {
		return resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json")
	}
	httpClient := base()
	if cfg.RetryCount > 0 {
		httpClient.SetRetryCount(cfg.RetryCount)
	}
	return &Client{http: httpClient, record: base()}
}

// CreatePaymentIntent requests a fresh payment intent for the given terms.
func (c *Client) CreatePaymentIntent(ctx context.Context, cred Credential, req CreateIntentRequest) (CreateIntentResponse, error) {
	var out CreateIntentResponse
	if cred.Empty() {
		return out, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if req.Amount <= 0 {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if req.PlanType == "" {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "plan type required")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(cred.bearer()).
		SetBody(req).
		SetResult(&out).
		Post(createIntentPath)
	if err != nil {
		return CreateIntentResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	if err := checkStatus(resp, "create payment intent"); err != nil {
		return CreateIntentResponse{}, err
	}
	if out.ClientSecret == "" {
		return CreateIntentResponse{}, pkgerrors.New(pkgerrors.CodeDependency, "platform returned no client secret")
	}
	return out, nil
}

// RecordTransaction writes a ledger entry. Callers must treat this as
// fire-once; the client never retries on its own.
func (c *Client) RecordTransaction(ctx context.Context, cred Credential, record TransactionRecord) error {
	if cred.Empty() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if !record.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction status %q", record.Status))
	}

	resp, err := c.record.R().
		SetContext(ctx).
		SetAuthToken(cred.bearer()).
		SetBody(record).
		Post(recordPath)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
	}
	return checkStatus(resp, "record transaction")
}

func checkStatus(resp *resty.Response, op string) error {
	if resp == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, op+" returned no response")
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "platform rejected credentials")
	case resp.IsError():
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s failed with status %d", op, resp.StatusCode()))
	default:
		return nil
	}
}
