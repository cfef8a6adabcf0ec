// Package billing talks to the external payment provider: it issues bills
// for an amount and reports their status by external identifier.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider bill statuses.
const (
	StatusWaiting  = "WAITING"
	StatusPaid     = "PAID"
	StatusRejected = "REJECTED"
	StatusExpired  = "EXPIRED"
)

var (
	// ErrProvider marks every failure to get a usable answer from the provider.
	ErrProvider = errors.New("payment provider failure")
	// ErrNoPayURL means the bill was not issued: the response carried no pay url.
	ErrNoPayURL = fmt.Errorf("%w: no pay url in response", ErrProvider)
	// ErrNoStatus means the provider has no status for the bill id.
	ErrNoStatus = fmt.Errorf("%w: no bill status", ErrProvider)
)

// BillRequest describes a bill to issue.
type BillRequest struct {
	BillID    string
	Amount    int64
	Currency  string
	ExpiresAt time.Time
}

// Bill is the provider's answer to a successful issue call.
type Bill struct {
	BillID string
	PayURL string
	Status string
}

// Provider is the payment provider contract.
type Provider interface {
	CreateBill(ctx context.Context, req BillRequest) (Bill, error)
	BillStatus(ctx context.Context, billID string) (string, error)
}
