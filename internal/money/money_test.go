package money

import (
	"errors"
	"testing"
)

func TestApplyPercentOff(t *testing.T) {
	got, err := ApplyPercentOff(10_000, 2000)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != 8_000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestApplyPercentOffRoundsHalfUp(t *testing.T) {
	// 999 * 0.85 = 849.15 -> 849; 995 * 0.85 = 845.75 -> 846
	got, err := ApplyPercentOff(999, 1500)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != 849 {
		t.Fatalf("expected 849, got %d", got)
	}
	got, err = ApplyPercentOff(995, 1500)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != 846 {
		t.Fatalf("expected 846, got %d", got)
	}
}

func TestApplyPercentOffFullDiscount(t *testing.T) {
	got, err := ApplyPercentOff(10_000, FullBps)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestApplyPercentOffRejectsOutOfRange(t *testing.T) {
	if _, err := ApplyPercentOff(10_000, -1); !errors.Is(err, ErrInvalidBps) {
		t.Fatalf("expected ErrInvalidBps, got %v", err)
	}
	if _, err := ApplyPercentOff(10_000, 10_001); !errors.Is(err, ErrInvalidBps) {
		t.Fatalf("expected ErrInvalidBps, got %v", err)
	}
}

func TestRemovePercentOff(t *testing.T) {
	got, err := RemovePercentOff(8_000, 2000)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got != 10_000 {
		t.Fatalf("expected 10000, got %d", got)
	}
}

func TestRemovePercentOffGuardsFullDiscount(t *testing.T) {
	if _, err := RemovePercentOff(8_000, FullBps); !errors.Is(err, ErrDivisionGuard) {
		t.Fatalf("expected ErrDivisionGuard, got %v", err)
	}
	if _, err := RemovePercentOff(8_000, FullBps+500); !errors.Is(err, ErrDivisionGuard) {
		t.Fatalf("expected ErrDivisionGuard, got %v", err)
	}
}

func TestApplyRemoveRoundTripWithinOneUnit(t *testing.T) {
	amounts := []Money{1, 99, 999, 10_000, 123_457, 9_999_999}
	for _, amount := range amounts {
		for bps := Bps(0); bps < FullBps; bps += 37 {
			discounted, err := ApplyPercentOff(amount, bps)
			if err != nil {
				t.Fatalf("apply %d bps: %v", bps, err)
			}
			restored, err := RemovePercentOff(discounted, bps)
			if err != nil {
				t.Fatalf("remove %d bps: %v", bps, err)
			}
			diff := restored - amount
			if diff < -1 || diff > 1 {
				t.Fatalf("round trip amount=%d bps=%d: restored %d", amount, bps, restored)
			}
		}
	}
}

func TestEffectiveBps(t *testing.T) {
	bps, err := EffectiveBps(8_000, 7_200)
	if err != nil {
		t.Fatalf("effective: %v", err)
	}
	if bps != 1000 {
		t.Fatalf("expected 1000 bps, got %d", bps)
	}
}

func TestEffectiveBpsRejectsZeroBaseline(t *testing.T) {
	if _, err := EffectiveBps(0, 0); !errors.Is(err, ErrDivisionGuard) {
		t.Fatalf("expected ErrDivisionGuard, got %v", err)
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[Bps]string{
		1500: "15%",
		1250: "12.5%",
		33:   "0.33%",
		0:    "0%",
	}
	for bps, want := range cases {
		if got := FormatPercent(bps); got != want {
			t.Fatalf("format %d: expected %q, got %q", bps, want, got)
		}
	}
}
