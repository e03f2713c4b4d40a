package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/veltaedu/velta-backend/pkg/config"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
)

// Client is the HTTP implementation of Executor against the treasury service.
type Client struct {
	http *resty.Client
}

type transferResponse struct {
	PaymentID string `json:"paymentId"`
}

type transferError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient builds a treasury client from configuration. Transfers are never
// retried at the transport level: a failed attempt may already have applied
// on the treasury side, so resolution belongs to the caller, not the wire.
func NewClient(cfg config.PaymentsConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("payments base url is required")
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: httpClient}, nil
}

// Execute performs the transfer synchronously. Treasury rejections (insufficient
// funds, unknown wallet) surface as amount/validation errors; transport problems
// surface as dependency errors so the caller's transaction rolls back.
func (c *Client) Execute(ctx context.Context, params ExecuteParams) (Result, error) {
	var (
		body   transferResponse
		errOut transferError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&body).
		SetError(&errOut).
		Post("/v1/transfers")
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment executor unreachable")
	}

	switch {
	case resp.IsSuccess():
		if body.PaymentID == "" {
			return Result{}, pkgerrors.New(pkgerrors.CodeDependency, "payment executor returned no payment id")
		}
		return Result{PaymentID: body.PaymentID}, nil
	case resp.StatusCode() == http.StatusUnprocessableEntity:
		return Result{}, pkgerrors.New(pkgerrors.CodeAmountInvalid, executorMessage(errOut, "transfer rejected")).
			WithDetails(map[string]any{"executor_code": errOut.Code})
	default:
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, executorMessage(errOut, "payment executor call failed")).
			WithDetails(map[string]any{"status": resp.StatusCode(), "executor_code": errOut.Code})
	}
}

func executorMessage(e transferError, fallback string) string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", fallback, e.Message)
	}
	return fallback
}
