package pricing

import (
	"context"
	"math"
	"testing"

	"shrimpquote_backend/platform/apperr"
)

func factorOf(percentage int) *float64 {
	f := GlazingFactor(percentage)
	return &f
}

func TestGlazingFactor_StandardPercentages(t *testing.T) {
	cases := map[int]float64{
		0:  1.00,
		10: 0.90,
		20: 0.80,
		30: 0.70,
		15: 0.85,
	}
	for percentage, want := range cases {
		if got := GlazingFactor(percentage); got != want {
			t.Errorf("GlazingFactor(%d) = %v, want %v", percentage, got, want)
		}
	}
}

func TestCompute_WorkedExample_CFRChain(t *testing.T) {
	quote, err := Compute(Inputs{
		Product:         "HLSO",
		Size:            "16/20",
		BaseKg:          8.55,
		FixedCostKg:     1.50,
		GlazingFactor:   factorOf(20),
		Freight:         0.35,
		FreightIncluded: true,
	})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	if quote.Kg.Net != 7.05 {
		t.Errorf("net = %v, want 7.05", quote.Kg.Net)
	}
	if quote.Kg.WithGlazing != 5.64 {
		t.Errorf("withGlazing = %v, want 5.64", quote.Kg.WithGlazing)
	}
	if quote.Kg.FOBWithGlazing != 7.14 {
		t.Errorf("fobWithGlazing = %v, want 7.14", quote.Kg.FOBWithGlazing)
	}
	if quote.Kg.Final != 7.49 {
		t.Errorf("final = %v, want 7.49", quote.Kg.Final)
	}
	if quote.Term != TermCFR {
		t.Errorf("term = %v, want CFR", quote.Term)
	}
}

func TestCompute_NoGlazingFactor_Fails(t *testing.T) {
	_, err := Compute(Inputs{BaseKg: 10, FixedCostKg: 0.25})
	if err != ErrGlazingRequired {
		t.Fatalf("expected ErrGlazingRequired, got %v", err)
	}
}

func TestCompute_ZeroPercentGlazing_IsValid(t *testing.T) {
	quote, err := Compute(Inputs{
		Product:       "HOSO",
		Size:          "30/40",
		BaseKg:        6.00,
		FixedCostKg:   0.25,
		GlazingFactor: factorOf(0),
	})
	if err != nil {
		t.Fatalf("0%% glazing must compute, got error: %v", err)
	}
	// Factor 1.00 makes withGlazing equal to net.
	if quote.Kg.WithGlazing != quote.Kg.Net {
		t.Errorf("withGlazing = %v, net = %v, want equal", quote.Kg.WithGlazing, quote.Kg.Net)
	}
	if quote.Kg.FOBWithGlazing != 6.00 {
		t.Errorf("fobWithGlazing = %v, want 6.00", quote.Kg.FOBWithGlazing)
	}
}

func TestCompute_NoFreightRequested_FOBOnly(t *testing.T) {
	quote, err := Compute(Inputs{
		Product:       "HLSO",
		Size:          "21/25",
		BaseKg:        10.24,
		FixedCostKg:   0.25,
		GlazingFactor: factorOf(10),
	})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if quote.Term != TermFOB {
		t.Errorf("term = %v, want FOB", quote.Term)
	}
	if quote.Kg.Final != quote.Kg.FOBWithGlazing {
		t.Errorf("final = %v, fobWithGlazing = %v, want equal when no freight", quote.Kg.Final, quote.Kg.FOBWithGlazing)
	}
}

func TestCompute_PoundDestination_ReducesFixedCostBeforeChain(t *testing.T) {
	in := Inputs{
		Product:         "P&D IQF",
		Size:            "16/20",
		BaseKg:          11.45,
		FixedCostKg:     0.25,
		GlazingFactor:   factorOf(20),
		Freight:         0.20,
		FreightIncluded: true,
		UsesPounds:      true,
	}
	quote, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	// The fixed cost enters the chain per pound, so the kilogram series
	// shifts too: 11.45 - 0.25/2.2046 = 11.34, not 11.20.
	if quote.Kg.Net != 11.34 || quote.Kg.Final != 9.38 {
		t.Errorf("kg series = %+v, want net 11.34 final 9.38", quote.Kg)
	}
	if quote.Lb.Final != 4.26 {
		t.Errorf("lb final = %v, want 4.26", quote.Lb.Final)
	}
	if quote.Published() != quote.Lb {
		t.Errorf("pound destination must publish the lb series")
	}

	in.UsesPounds = false
	kgQuote, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if kgQuote.Kg == quote.Kg || kgQuote.Lb == quote.Lb {
		t.Errorf("pound destination must price differently from a kg destination")
	}
	if kgQuote.Lb.Final != 4.27 {
		t.Errorf("kg destination lb final = %v, want 4.27", kgQuote.Lb.Final)
	}
}

func TestCompute_Recompute_IsIdempotent(t *testing.T) {
	in := Inputs{
		Product:         "HOSO",
		Size:            "40/50",
		BaseKg:          5.37,
		FixedCostKg:     0.25,
		GlazingFactor:   factorOf(30),
		Freight:         0.18,
		FreightIncluded: true,
	}
	first, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	second := first.WithFreight(first.Freight)
	if first != second {
		t.Errorf("recomputing with the same freight changed the quote:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestWithFreight_ReplacesOnlyFreight(t *testing.T) {
	quote, err := Compute(Inputs{
		Product:       "HLSO",
		Size:          "26/30",
		BaseKg:        9.83,
		FixedCostKg:   0.25,
		GlazingFactor: factorOf(20),
	})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	updated := quote.WithFreight(0.30)
	if updated.Freight != 0.30 {
		t.Errorf("freight = %v, want 0.30", updated.Freight)
	}
	if updated.Term != TermCFR {
		t.Errorf("term = %v, want CFR after adding freight", updated.Term)
	}
	if updated.Kg.FOBWithGlazing != quote.Kg.FOBWithGlazing {
		t.Errorf("fobWithGlazing changed: %v -> %v", quote.Kg.FOBWithGlazing, updated.Kg.FOBWithGlazing)
	}
	want := Round2(quote.Kg.FOBWithGlazing + 0.30)
	if updated.Kg.Final != want {
		t.Errorf("final = %v, want %v", updated.Kg.Final, want)
	}
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{2.345, 2.35},
		{2.335, 2.34},
		{-2.345, -2.35},
		{7.485, 7.49},
	}
	for _, tc := range cases {
		got := Round2(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMemoryRepository_NotFoundListsAvailableSizes(t *testing.T) {
	repo := NewMemoryFromSeed(Seed{
		FixedCost: 0.25,
		BasePrices: map[string]map[string]float64{
			"HLSO": {"16/20": 11.45, "21/25": 10.24},
		},
	})

	_, err := repo.BasePrice(context.Background(), "HLSO", "71/90")
	appErr, ok := err.(*apperr.Error)
	if !ok || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected NotFound error, got %v", err)
	}
	sizes, ok := appErr.Details.([]string)
	if !ok || len(sizes) != 2 {
		t.Fatalf("expected 2 available sizes in details, got %v", appErr.Details)
	}
}

func TestMemoryRepository_FreightNotFoundIsNotZero(t *testing.T) {
	repo := NewMemoryFromSeed(Seed{
		FreightRates: map[string]float64{"miami": 0.20},
	})

	if rate, err := repo.FreightRate(context.Background(), "Miami"); err != nil || rate != 0.20 {
		t.Fatalf("Miami rate = %v err=%v, want 0.20", rate, err)
	}
	if _, err := repo.FreightRate(context.Background(), "rotterdam"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound for missing destination, got %v", err)
	}
}
