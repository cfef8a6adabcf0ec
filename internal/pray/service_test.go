package pray

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pray-app/pray_api/internal/billing"
	"github.com/pray-app/pray_api/internal/config"
	"github.com/pray-app/pray_api/internal/logging"
	"github.com/pray-app/pray_api/internal/notification"
)

type fixture struct {
	svc      *Service
	repo     Repository
	provider *billing.MemoryProvider
	notes    *notification.Recorder
}

func newFixture() fixture {
	repo := NewMemoryRepository()
	provider := billing.NewMemoryProvider("https://pay.local")
	notes := &notification.Recorder{}
	svc := NewService(repo, provider, notes, config.Billing{Currency: "RUB", Lifetime: time.Hour}, logging.Discard())
	return fixture{svc: svc, repo: repo, provider: provider, notes: notes}
}

func TestCreatePricesAndIssuesBill(t *testing.T) {
	f := newFixture()
	f.provider.UsePayURL("https://pay/x")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{"Anna", "Boris"}, RipNames: []string{"Vera"}, Category: "SIMPLE"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Payment.PayURL != "https://pay/x" {
		t.Fatalf("unexpected pay url %q", created.Payment.PayURL)
	}
	if created.Payment.Amount != 6 {
		t.Fatalf("expected amount 6, got %d", created.Payment.Amount)
	}
	if created.Pray.Status != StatusUnpaid || created.Payment.Status != StatusUnpaid {
		t.Fatalf("expected unpaid records, got %+v", created)
	}

	bills := f.provider.Bills()
	bill, ok := bills[created.Payment.BillID]
	if !ok || bill.Amount != 6 || bill.Currency != "RUB" {
		t.Fatalf("unexpected bill %+v", bills)
	}

	payment, err := f.repo.PaymentByPray(ctx, created.Pray.ID)
	if err != nil || payment.BillID != created.Payment.BillID {
		t.Fatalf("payment not linked: %+v %v", payment, err)
	}
}

func TestCreateRejectsUnknownCategoryBeforeBilling(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), 1, CreateInput{LiveNames: []string{"Anna"}, Category: "WEEKLY"})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if f.provider.CreateCalls() != 0 {
		t.Fatalf("bill must not be requested for an invalid category")
	}
}

func TestCreateRejectsEmptyAndBlankNames(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, 1, CreateInput{Category: "SIMPLE"}); !errors.Is(err, ErrNoNames) {
		t.Fatalf("expected ErrNoNames, got %v", err)
	}
	if _, err := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{" "}, Category: "SIMPLE"}); !errors.Is(err, ErrBlankName) {
		t.Fatalf("expected ErrBlankName, got %v", err)
	}
	if f.provider.CreateCalls() != 0 {
		t.Fatalf("no bill expected")
	}
}

func TestCreateWithoutBillPersistsNothing(t *testing.T) {
	f := newFixture()
	f.provider.FailCreate(billing.ErrNoPayURL)

	_, err := f.svc.Create(context.Background(), 1, CreateInput{LiveNames: []string{"Anna"}, Category: "FORTY"})
	if !errors.Is(err, ErrBillNotIssued) {
		t.Fatalf("expected ErrBillNotIssued, got %v", err)
	}
	if WriteCount(f.repo) != 0 {
		t.Fatalf("expected no writes, got %d", WriteCount(f.repo))
	}
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{"Anna"}, Category: "SPECIAL"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.Pray.ID

	if _, err := f.svc.Get(ctx, 2, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.PayURL(ctx, 2, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pay url: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.CheckStatus(ctx, 2, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("check: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Delete(ctx, 2, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
	if f.provider.StatusCalls() != 0 {
		t.Fatalf("provider must not be queried for a foreign pray")
	}

	if _, err := f.svc.Get(ctx, 1, id); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := f.svc.Delete(ctx, 1, id); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, 1, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted pray to be gone, got %v", err)
	}
	if _, err := f.repo.PaymentByPray(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected payment removed with pray, got %v", err)
	}
}

func TestCheckStatusFlipsBothRecords(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{"Anna"}, Category: "YEARLY"})

	p, err := f.svc.CheckStatus(ctx, 1, created.Pray.ID)
	if err != nil {
		t.Fatalf("check waiting: %v", err)
	}
	if p.Status != StatusUnpaid {
		t.Fatalf("expected unpaid while waiting, got %s", p.Status)
	}

	f.provider.SetStatus(created.Payment.BillID, billing.StatusPaid)
	p, err = f.svc.CheckStatus(ctx, 1, created.Pray.ID)
	if err != nil {
		t.Fatalf("check paid: %v", err)
	}
	if p.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", p.Status)
	}

	stored, _ := f.repo.Get(ctx, created.Pray.ID)
	payment, _ := f.repo.PaymentByPray(ctx, created.Pray.ID)
	if stored.Status != StatusPaid || payment.Status != stored.Status {
		t.Fatalf("records out of sync: pray=%s payment=%s", stored.Status, payment.Status)
	}
	if msgs := f.notes.Messages(); len(msgs) != 1 || msgs[0].PrayID != created.Pray.ID {
		t.Fatalf("expected one paid notification, got %+v", msgs)
	}

	calls := f.provider.StatusCalls()
	writes := WriteCount(f.repo)
	if _, err := f.svc.CheckStatus(ctx, 1, created.Pray.ID); err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if f.provider.StatusCalls() != calls || WriteCount(f.repo) != writes {
		t.Fatalf("paid pray must not be re-queried or rewritten")
	}
}

func TestCheckStatusProviderFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{"Anna"}, Category: "SIMPLE"})
	f.provider.ForgetBill(created.Payment.BillID)

	if _, err := f.svc.CheckStatus(ctx, 1, created.Pray.ID); !errors.Is(err, billing.ErrProvider) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, 1, CreateInput{RipNames: []string{"Ivan"}, Category: "SIMPLE"})
	f.provider.SetStatus(created.Payment.BillID, billing.StatusPaid)

	first, err := f.svc.Confirm(ctx, created.Payment)
	if err != nil || !first.Changed || !first.Paid {
		t.Fatalf("first confirm: %+v %v", first, err)
	}
	second, err := f.svc.Confirm(ctx, created.Payment)
	if err != nil || second.Changed || !second.Paid {
		t.Fatalf("second confirm: %+v %v", second, err)
	}
	if len(f.notes.Messages()) != 1 {
		t.Fatalf("expected a single notification")
	}
}

func TestConfirmOrphanedPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{"Anna"}, Category: "SIMPLE"})
	f.provider.SetStatus(created.Payment.BillID, billing.StatusPaid)
	DropPrayOnly(f.repo, created.Pray.ID)

	if _, err := f.svc.Confirm(ctx, created.Payment); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for orphan, got %v", err)
	}
}

func TestPaidNamesAndSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, 1, CreateInput{LiveNames: []string{"Anna"}, RipNames: []string{"Ivan"}, Category: "SIMPLE"})
	b, _ := f.svc.Create(ctx, 2, CreateInput{LiveNames: []string{"Boris"}, Category: "simple"})
	_, _ = f.svc.Create(ctx, 2, CreateInput{LiveNames: []string{"Unpaid"}, Category: "SIMPLE"})
	c, _ := f.svc.Create(ctx, 3, CreateInput{RipNames: []string{"Olga"}, Category: "FORTY"})

	if _, err := f.svc.PaidNames(ctx, "SIMPLE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before payment, got %v", err)
	}

	for _, created := range []Created{a, b, c} {
		f.provider.SetStatus(created.Payment.BillID, billing.StatusPaid)
		if _, err := f.svc.Confirm(ctx, created.Payment); err != nil {
			t.Fatalf("confirm: %v", err)
		}
	}

	names, err := f.svc.PaidNames(ctx, "simple")
	if err != nil {
		t.Fatalf("paid names: %v", err)
	}
	if len(names.LiveNames) != 2 || names.LiveNames[0] != "Anna" || names.LiveNames[1] != "Boris" {
		t.Fatalf("unexpected live names %v", names.LiveNames)
	}
	if len(names.RipNames) != 1 || names.RipNames[0] != "Ivan" {
		t.Fatalf("unexpected rip names %v", names.RipNames)
	}

	if _, err := f.svc.PaidNames(ctx, "WEEKLY"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	summary, err := f.svc.PaidSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 4 || summary[2].Category != CategoryForty || summary[2].RipNames[0] != "Olga" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary[3].LiveNames) != 0 || summary[3].LiveNames == nil {
		t.Fatalf("expected empty, non-nil yearly names")
	}
}
