package pray

import (
	"errors"
	"strings"
	"time"
)

// Payment statuses shared by Pray and Payment. Paid is terminal.
const (
	StatusUnpaid = "unpaid"
	StatusPaid   = "paid"
)

// Category is the pricing tier of a prayer request.
type Category string

// Known categories.
const (
	CategorySimple  Category = "SIMPLE"
	CategorySpecial Category = "SPECIAL"
	CategoryForty   Category = "FORTY"
	CategoryYearly  Category = "YEARLY"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySimple, CategorySpecial, CategoryForty, CategoryYearly}

var (
	// ErrInvalidCategory is returned for anything outside Categories.
	ErrInvalidCategory = errors.New("pray category not found")
	// ErrNotFound covers both missing requests and requests owned by someone else.
	ErrNotFound = errors.New("pray not found")
	// ErrNoNames is returned when a request carries no names at all.
	ErrNoNames = errors.New("at least one name is required")
	// ErrBlankName is returned when a name is empty after trimming.
	ErrBlankName = errors.New("names must not be blank")
	// ErrBillNotIssued means the provider did not issue a bill; nothing was stored.
	ErrBillNotIssued = errors.New("bill was not issued")
)

var titles = map[Category]string{
	CategorySimple:  "Простая",
	CategorySpecial: "Заказная",
	CategoryForty:   "Сорокоуст",
	CategoryYearly:  "Годовое",
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := titles[c]; !ok {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Title is the human readable name shown in aggregates.
func (c Category) Title() string {
	return titles[c]
}

// Pray is a prayer request.
type Pray struct {
	ID        int64
	UserID    int64
	LiveNames []string
	RipNames  []string
	Category  Category
	CreatedAt time.Time
	Status    string
}

// Payment links a Pray to the provider bill issued for it.
type Payment struct {
	ID       int64
	BillID   string
	PayURL   string
	UserID   int64
	PrayID   int64
	Amount   int64
	Currency string
	Status   string
}

// CreateInput is the user supplied part of a new prayer request.
type CreateInput struct {
	LiveNames []string
	RipNames  []string
	Category  string
}

// Created is the outcome of Service.Create.
type Created struct {
	Pray    Pray
	Payment Payment
}

// Confirmation reports what a provider check found for one payment.
type Confirmation struct {
	ProviderStatus string
	Paid           bool
	Changed        bool
}

// PaidNames aggregates the names of all paid requests of one category.
type PaidNames struct {
	Category  Category
	LiveNames []string
	RipNames  []string
}
