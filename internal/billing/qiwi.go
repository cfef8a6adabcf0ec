package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pray-app/pray_api/internal/config"
)

const (
	qiwiBillsPath   = "/partner/bill/v1/bills/"
	qiwiTimeLayout  = "2006-01-02T15:04:05-07:00"
	qiwiUserAgent   = "pray-api/1.0"
	fallbackTimeout = 15 * time.Second
)

type qiwiAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type qiwiBillRequest struct {
	Amount             qiwiAmount `json:"amount"`
	ExpirationDateTime string     `json:"expirationDateTime"`
}

type qiwiStatus struct {
	Value string `json:"value"`
}

type qiwiBillResponse struct {
	BillID string      `json:"billId"`
	PayURL string      `json:"payUrl"`
	Status *qiwiStatus `json:"status"`
}

// QiwiClient implements Provider against the QIWI P2P bill API.
type QiwiClient struct {
	client  *fiber.Client
	baseURL string
	token   string
	timeout time.Duration
}

// NewQiwiClient builds a client from the billing configuration.
func NewQiwiClient(cfg config.Billing) *QiwiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	return &QiwiClient{
		client:  &fiber.Client{UserAgent: qiwiUserAgent},
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		timeout: timeout,
	}
}

// CreateBill issues a bill via PUT /bills/{id}.
func (q *QiwiClient) CreateBill(ctx context.Context, req BillRequest) (Bill, error) {
	payload := qiwiBillRequest{
		Amount: qiwiAmount{
			Currency: req.Currency,
			Value:    fmt.Sprintf("%d.00", req.Amount),
		},
		ExpirationDateTime: req.ExpiresAt.Format(qiwiTimeLayout),
	}

	agent := q.client.Put(q.billURL(req.BillID))
	q.prepare(ctx, agent)
	agent.JSON(payload)

	var resp qiwiBillResponse
	code, err := q.do(ctx, agent, &resp)
	if err != nil {
		return Bill{}, err
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices || resp.PayURL == "" {
		return Bill{}, fmt.Errorf("%w (http %d)", ErrNoPayURL, code)
	}

	bill := Bill{BillID: req.BillID, PayURL: resp.PayURL}
	if resp.Status != nil {
		bill.Status = resp.Status.Value
	}
	return bill, nil
}

// BillStatus fetches the current status value of a bill.
func (q *QiwiClient) BillStatus(ctx context.Context, billID string) (string, error) {
	agent := q.client.Get(q.billURL(billID))
	q.prepare(ctx, agent)

	var resp qiwiBillResponse
	code, err := q.do(ctx, agent, &resp)
	if err != nil {
		return "", err
	}
	if resp.Status == nil || resp.Status.Value == "" {
		return "", fmt.Errorf("%w (http %d)", ErrNoStatus, code)
	}
	return resp.Status.Value, nil
}

func (q *QiwiClient) billURL(billID string) string {
	return q.baseURL + qiwiBillsPath + url.PathEscape(billID)
}

func (q *QiwiClient) prepare(ctx context.Context, agent *fiber.Agent) {
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+q.token)

	timeout := q.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)
}

// do runs the request and decodes a JSON body into out when there is one.
func (q *QiwiClient) do(ctx context.Context, agent *fiber.Agent, out any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return code, fmt.Errorf("%w: %v", ErrProvider, errors.Join(errs...))
	}
	if len(body) == 0 {
		return code, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return code, fmt.Errorf("%w: decode response (http %d): %v", ErrProvider, code, err)
	}
	return code, nil
}
