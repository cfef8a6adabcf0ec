package pray

import (
	"errors"
	"testing"
)

func TestPriceForEveryCategory(t *testing.T) {
	cases := []struct {
		category Category
		rate     int64
	}{
		{CategorySimple, 2},
		{CategorySpecial, 20},
		{CategoryForty, 800},
		{CategoryYearly, 2000},
	}
	for _, tc := range cases {
		for live := 0; live <= 3; live++ {
			for rip := 0; rip <= 3; rip++ {
				got, err := Price(tc.category, live, rip)
				if err != nil {
					t.Fatalf("%s: %v", tc.category, err)
				}
				if want := int64(live+rip) * tc.rate; got != want {
					t.Fatalf("%s live=%d rip=%d: got %d want %d", tc.category, live, rip, got, want)
				}
			}
		}
	}
}

func TestPriceUnknownCategory(t *testing.T) {
	if _, err := Price(Category("WEEKLY"), 1, 0); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{"simple": CategorySimple, " Forty ": CategoryForty, "YEARLY": CategoryYearly} {
		got, err := ParseCategory(in)
		if err != nil || got != want {
			t.Fatalf("ParseCategory(%q) = %q, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "1", "SIMPLE,", "monthly"} {
		if _, err := ParseCategory(in); !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("ParseCategory(%q): expected ErrInvalidCategory, got %v", in, err)
		}
	}
}

func TestCategoryTitles(t *testing.T) {
	for _, c := range Categories {
		if c.Title() == "" {
			t.Fatalf("category %s has no title", c)
		}
	}
}
