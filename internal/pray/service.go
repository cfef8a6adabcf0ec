package pray

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pray-app/pray_api/internal/billing"
	"github.com/pray-app/pray_api/internal/config"
	"github.com/pray-app/pray_api/internal/logging"
	"github.com/pray-app/pray_api/internal/notification"
)

const defaultBillLifetime = 72 * time.Hour

// Service owns the prayer request lifecycle: pricing, bill issuance,
// ownership-scoped access and payment confirmation.
type Service struct {
	repo      Repository
	provider  billing.Provider
	notifier  notification.Notifier
	currency  string
	lifetime  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	newBillID func() string
}

// NewService wires a pray service. A nil notifier disables notifications.
func NewService(repo Repository, provider billing.Provider, notifier notification.Notifier, cfg config.Billing, logger *slog.Logger) *Service {
	currency := cfg.Currency
	if currency == "" {
		currency = "RUB"
	}
	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = defaultBillLifetime
	}
	return &Service{
		repo:      repo,
		provider:  provider,
		notifier:  notifier,
		currency:  currency,
		lifetime:  lifetime,
		logger:    logging.Component(logger, "pray"),
		now:       time.Now,
		newBillID: uuid.NewString,
	}
}

// Create prices the request, issues a bill and persists the request together
// with its payment record. Nothing is stored unless the bill was issued.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Created, error) {
	category, err := ParseCategory(in.Category)
	if err != nil {
		return Created{}, err
	}
	live, err := cleanNames(in.LiveNames)
	if err != nil {
		return Created{}, err
	}
	rip, err := cleanNames(in.RipNames)
	if err != nil {
		return Created{}, err
	}
	if len(live)+len(rip) == 0 {
		return Created{}, ErrNoNames
	}

	amount, err := Price(category, len(live), len(rip))
	if err != nil {
		return Created{}, err
	}

	now := s.now().UTC()
	billID := s.newBillID()
	bill, err := s.provider.CreateBill(ctx, billing.BillRequest{
		BillID:    billID,
		Amount:    amount,
		Currency:  s.currency,
		ExpiresAt: now.Add(s.lifetime),
	})
	if err != nil {
		s.logger.Error("bill creation failed", slog.String("bill_id", billID), slog.Int64("user_id", userID), slog.Any("error", err))
		return Created{}, fmt.Errorf("%w: %v", ErrBillNotIssued, err)
	}
	if bill.PayURL == "" {
		return Created{}, fmt.Errorf("%w: empty pay url", ErrBillNotIssued)
	}

	p, payment, err := s.repo.Create(ctx, Pray{
		UserID:    userID,
		LiveNames: live,
		RipNames:  rip,
		Category:  category,
		CreatedAt: now,
		Status:    StatusUnpaid,
	}, Payment{
		BillID:   billID,
		PayURL:   bill.PayURL,
		UserID:   userID,
		Amount:   amount,
		Currency: s.currency,
		Status:   StatusUnpaid,
	})
	if err != nil {
		return Created{}, err
	}

	s.logger.Info("pray created",
		slog.Int64("pray_id", p.ID),
		slog.Int64("user_id", userID),
		slog.String("category", string(category)),
		slog.Int64("amount", amount),
		slog.String("bill_id", billID),
	)
	return Created{Pray: p, Payment: payment}, nil
}

// Get returns a pray owned by the user.
func (s *Service) Get(ctx context.Context, userID, prayID int64) (Pray, error) {
	return s.owned(ctx, userID, prayID)
}

// Delete removes a pray owned by the user along with its payment record.
func (s *Service) Delete(ctx context.Context, userID, prayID int64) (Pray, error) {
	p, err := s.owned(ctx, userID, prayID)
	if err != nil {
		return Pray{}, err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return Pray{}, err
	}
	s.logger.Info("pray deleted", slog.Int64("pray_id", p.ID), slog.Int64("user_id", userID))
	return p, nil
}

// PayURL returns the payment record of a pray owned by the user.
func (s *Service) PayURL(ctx context.Context, userID, prayID int64) (Payment, error) {
	payment, err := s.repo.PaymentByPray(ctx, prayID)
	if err != nil {
		return Payment{}, err
	}
	if payment.UserID != userID {
		return Payment{}, ErrNotFound
	}
	return payment, nil
}

// CheckStatus asks the provider about the pray's bill on behalf of its owner
// and returns the pray with its current status.
func (s *Service) CheckStatus(ctx context.Context, userID, prayID int64) (Pray, error) {
	p, err := s.owned(ctx, userID, prayID)
	if err != nil {
		return Pray{}, err
	}
	payment, err := s.repo.PaymentByPray(ctx, p.ID)
	if err != nil {
		return Pray{}, err
	}
	if p.Status == StatusPaid && payment.Status == StatusPaid {
		return p, nil
	}

	confirmation, err := s.Confirm(ctx, payment)
	if err != nil {
		return Pray{}, err
	}
	if confirmation.Paid {
		p.Status = StatusPaid
	}
	return p, nil
}

// Confirm queries the provider for the payment's bill and, when it reports
// PAID, moves the payment and its pray to paid together.
func (s *Service) Confirm(ctx context.Context, payment Payment) (Confirmation, error) {
	status, err := s.provider.BillStatus(ctx, payment.BillID)
	if err != nil {
		return Confirmation{}, err
	}
	if status != billing.StatusPaid {
		return Confirmation{ProviderStatus: status}, nil
	}

	changed, err := s.repo.MarkPaid(ctx, payment)
	if err != nil {
		return Confirmation{ProviderStatus: status}, err
	}
	if changed {
		s.logger.Info("pray paid", slog.Int64("pray_id", payment.PrayID), slog.String("bill_id", payment.BillID))
		s.notify(ctx, payment)
	}
	return Confirmation{ProviderStatus: status, Paid: true, Changed: changed}, nil
}

// ListUnpaid exposes the unpaid payment records for reconciliation.
func (s *Service) ListUnpaid(ctx context.Context) ([]Payment, error) {
	return s.repo.ListUnpaid(ctx)
}

// PaidNames concatenates the names of every paid pray in the category.
func (s *Service) PaidNames(ctx context.Context, category string) (PaidNames, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return PaidNames{}, err
	}
	names, err := s.paidNames(ctx, c)
	if err != nil {
		return PaidNames{}, err
	}
	if len(names.LiveNames)+len(names.RipNames) == 0 {
		return PaidNames{}, ErrNotFound
	}
	return names, nil
}

// PaidSummary returns PaidNames for every category, empty ones included.
func (s *Service) PaidSummary(ctx context.Context) ([]PaidNames, error) {
	out := make([]PaidNames, 0, len(Categories))
	for _, c := range Categories {
		names, err := s.paidNames(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, names)
	}
	return out, nil
}

func (s *Service) paidNames(ctx context.Context, c Category) (PaidNames, error) {
	prays, err := s.repo.ListPaid(ctx, c)
	if err != nil {
		return PaidNames{}, err
	}
	names := PaidNames{Category: c, LiveNames: []string{}, RipNames: []string{}}
	for _, p := range prays {
		names.LiveNames = append(names.LiveNames, p.LiveNames...)
		names.RipNames = append(names.RipNames, p.RipNames...)
	}
	return names, nil
}

func (s *Service) owned(ctx context.Context, userID, prayID int64) (Pray, error) {
	p, err := s.repo.Get(ctx, prayID)
	if err != nil {
		return Pray{}, err
	}
	if p.UserID != userID {
		return Pray{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) notify(ctx context.Context, payment Payment) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:   notification.KindPrayPaid,
		UserID: payment.UserID,
		PrayID: payment.PrayID,
		Body:   fmt.Sprintf("Payment of %d %s received for pray %d", payment.Amount, payment.Currency, payment.PrayID),
	})
	if err != nil {
		s.logger.Warn("notification failed", slog.Int64("pray_id", payment.PrayID), slog.Any("error", err))
	}
}

func cleanNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrBlankName
		}
		out = append(out, name)
	}
	return out, nil
}

// IsValidation reports whether err is a client input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrNoNames) || errors.Is(err, ErrBlankName)
}
