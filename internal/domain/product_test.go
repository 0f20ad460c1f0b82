package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

func TestNormalizePrice(t *testing.T) {
	cases := map[string]string{
		"10.005": "10.01",
		"10.004": "10",
		"0.001":  "0",
		"0.005":  "0.01",
		"15.5":   "15.5",
		"-1.005": "-1.01",
	}

	for in, want := range cases {
		got := domain.NormalizePrice(decimal.RequireFromString(in))
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("NormalizePrice(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestProductValidateInvariants(t *testing.T) {
	p := domain.Product{Price: decimal.Zero, Stock: -1}
	errs := p.ValidateInvariants()
	if len(errs) != 2 || errs[0] != domain.ErrNonPositivePrice || errs[1] != domain.ErrNegativeStock {
		t.Fatalf("unexpected errors: %v", errs)
	}

	p = domain.Product{Price: decimal.RequireFromString("0.01")}
	if errs := p.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
