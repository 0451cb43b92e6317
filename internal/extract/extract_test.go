package extract

import "testing"

func TestSizes_NormalizesSeparators(t *testing.T) {
	sizes := Sizes(Normalize("necesito 16-20 y 21 / 25 y U15"))
	want := map[string]bool{"16/20": true, "21/25": true, "U15": true}
	if len(sizes) != 3 {
		t.Fatalf("got %d sizes %v, want 3", len(sizes), sizes)
	}
	for _, size := range sizes {
		if !want[size] {
			t.Errorf("unexpected size %q", size)
		}
	}
}

func TestExtract_TwoSizes_ProducesTwoItems(t *testing.T) {
	params := Extract("HOSO 16/20 y 21/25 DDP Houston")
	if len(params.Sizes) != 2 {
		t.Fatalf("got %d sizes, want 2", len(params.Sizes))
	}
	items := SplitItems(Normalize("HOSO 16/20 y 21/25 DDP Houston"), params.Product)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, item := range items {
		if item.Product != ProductHOSO {
			t.Errorf("item %v did not inherit HOSO", item)
		}
	}
}

func TestProduct_SynonymMatching(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"precio camaron sin cabeza 16/20", ProductHLSO},
		{"whole shrimp head on", ProductHOSO},
		{"cocido sin tratar 21/25", ProductUntreatedCooked},
		{"pre-cocido 26/30", ProductPreCooked},
		{"cotiza p&d iqf 16/20", ProductPDIQF},
		{"ez peel 21/25", ProductEZPeel},
		{"colas 31/35", ProductHLSO},
	}
	for _, tc := range cases {
		got, ambiguous := Product(Normalize(tc.text))
		if ambiguous {
			t.Errorf("%q flagged ambiguous", tc.text)
			continue
		}
		if got != tc.want {
			t.Errorf("Product(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestProduct_WholeAndTailsWithCookWord_IsAmbiguous(t *testing.T) {
	_, ambiguous := Product(Normalize("quiero inteiro y colas cocidas 30/40 40/50"))
	if !ambiguous {
		t.Fatal("Inteiro + Colas with cooking word must be flagged ambiguous")
	}
}

func TestProduct_HOSOExclusiveSizeInference(t *testing.T) {
	params := Extract("precio 30/40 por favor")
	if params.Product != ProductHOSO {
		t.Errorf("product = %q, want HOSO inferred from size 30/40", params.Product)
	}
}

func TestGlazing_LayeredPatterns(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"16/20 con glaseo del 20%", 20},
		{"20% de glaseo", 20},
		{"hlso al 10%", 10},
		{"glazing 30", 30},
		{"sin glaseo por favor", 0},
	}
	for _, tc := range cases {
		got := Glazing(Normalize(tc.text))
		if got == nil {
			t.Errorf("Glazing(%q) = nil, want %d", tc.text, tc.want)
			continue
		}
		if *got != tc.want {
			t.Errorf("Glazing(%q) = %d, want %d", tc.text, *got, tc.want)
		}
	}
}

func TestGlazing_AbsentIsNil_NotZero(t *testing.T) {
	if got := Glazing(Normalize("HLSO 16/20 para Miami")); got != nil {
		t.Fatalf("expected nil for unspecified glazing, got %d", *got)
	}
}

func TestGlazingReply_BareNumber(t *testing.T) {
	got := GlazingReply("20")
	if got == nil || *got != 20 {
		t.Fatalf("GlazingReply(\"20\") = %v, want 20", got)
	}
	if GlazingReply("no se") != nil {
		t.Fatal("non-numeric reply must not parse")
	}
}

func TestFreight_CentsHeuristic(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"25", 0.25},
		{"0.25", 0.25},
		{"flete 35", 0.35},
		{"freight 0.4", 0.4},
		{"flete de 18 cents", 0.18},
		{"3", 3},
	}
	for _, tc := range cases {
		got := FreightReply(tc.text)
		if got == nil {
			t.Errorf("FreightReply(%q) = nil, want %v", tc.text, tc.want)
			continue
		}
		if *got != tc.want {
			t.Errorf("FreightReply(%q) = %v, want %v", tc.text, *got, tc.want)
		}
	}
}

func TestExtract_DDPWithoutFreightValue(t *testing.T) {
	params := Extract("HOSO 16/20 DDP Houston")
	if !params.DDP {
		t.Fatal("DDP marker not detected")
	}
	if !params.FreightRequested {
		t.Fatal("DDP implies freight is requested")
	}
	if params.FreightValue != nil {
		t.Fatalf("no freight value stated, got %v", *params.FreightValue)
	}
}

func TestDestination_AliasesAndUnits(t *testing.T) {
	cases := []struct {
		text       string
		want       string
		usesPounds bool
	}{
		{"para maiami", "Miami", true},
		{"destino houton", "Houston", false},
		{"envio a chicaco", "Chicago", true},
		{"dalas ddp", "Dallas", true},
		{"cfr rotterdam", "Rotterdam", false},
	}
	for _, tc := range cases {
		name, usesPounds := Destination(Normalize(tc.text))
		if name != tc.want || usesPounds != tc.usesPounds {
			t.Errorf("Destination(%q) = (%q, %v), want (%q, %v)", tc.text, name, usesPounds, tc.want, tc.usesPounds)
		}
	}
}

func TestParseQuantity_KPerBox(t *testing.T) {
	quantity := ParseQuantity(Normalize("2 k/box de 16/20"))
	if quantity == nil {
		t.Fatal("quantity not found")
	}
	if quantity.Unit != "k/box" || quantity.KgPerBox != 2000 {
		t.Errorf("got %+v, want k/box with 2000 kg", quantity)
	}
}

func TestClientName_Captured(t *testing.T) {
	if name := ClientName("cotiza HLSO 16/20 para Mariscos Del Sur"); name != "Mariscos Del Sur" {
		t.Errorf("client = %q, want Mariscos Del Sur", name)
	}
	if name := ClientName("HLSO 16/20 para Miami"); name != "" {
		t.Errorf("destination misread as client: %q", name)
	}
}

func TestParseLanguageSelection(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"1", "es", true},
		{"español", "es", true},
		{"2", "en", true},
		{"English please", "en", true},
		{"tres", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseLanguageSelection(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseLanguageSelection(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseProductClarification(t *testing.T) {
	whole, tails, ok := ParseProductClarification("HOSO para el entero y cocido para las colas")
	if !ok {
		t.Fatal("clarification not parsed")
	}
	if whole != ProductHOSO {
		t.Errorf("whole = %q, want HOSO", whole)
	}
	if tails != ProductCooked {
		t.Errorf("tails = %q, want COOKED", tails)
	}

	if _, _, ok := ParseProductClarification("no entiendo"); ok {
		t.Fatal("nonsense reply must not parse")
	}
}
