// Package pricing computes shrimp export price chains. The engine is pure:
// given a base price and a fully resolved parameter set it derives the
// FOB/CFR/DDP series in both mass units, with no I/O.
package pricing

import (
	"errors"
	"math"
)

// PoundsPerKg is the conversion constant for the per-pound price series.
const PoundsPerKg = 2.2046

// ErrGlazingRequired is returned when no glazing factor was resolved.
// Glazing is mandatory to produce any price; freight is not.
var ErrGlazingRequired = errors.New("glazing factor is required to compute a price")

// TradeTerm identifies the commercial term a quote was priced under.
type TradeTerm string

const (
	TermFOB TradeTerm = "FOB"
	TermCFR TradeTerm = "CFR"
	TermDDP TradeTerm = "DDP"
)

// Inputs is the fully resolved parameter set for one line item.
type Inputs struct {
	Product string
	Size    string

	// BaseKg and FixedCostKg are expressed in USD per kilogram.
	BaseKg      float64
	FixedCostKg float64

	// GlazingFactor is 1 - percentage/100. Nil means unresolved, which is
	// an error; a factor of 1.00 means explicitly no glazing.
	GlazingFactor *float64

	// Freight is USD per kilogram. Zero when the buyer did not request
	// freight; the engine never substitutes a looked-up default.
	Freight         float64
	FreightIncluded bool

	// DDP marks an explicit delivered-duty-paid request. It implies
	// FreightIncluded; the caller must have resolved Freight already.
	DDP bool

	// UsesPounds marks destinations that are quoted per pound.
	UsesPounds bool
}

// Series is one ordered price chain in a single mass unit.
type Series struct {
	Net            float64 `json:"net"`
	WithGlazing    float64 `json:"withGlazing"`
	FOBWithGlazing float64 `json:"fobWithGlazing"`
	Final          float64 `json:"final"`
}

// Quote is the immutable engine output. It carries every input needed to
// recompute itself with a different freight.
type Quote struct {
	Product string `json:"product"`
	Size    string `json:"size"`

	BaseKg          float64   `json:"baseKg"`
	FixedCostKg     float64   `json:"fixedCostKg"`
	GlazingFactor   float64   `json:"glazingFactor"`
	Freight         float64   `json:"freight"`
	FreightIncluded bool      `json:"freightIncluded"`
	Term            TradeTerm `json:"term"`
	UsesPounds      bool      `json:"usesPounds"`

	Kg Series `json:"kg"`
	Lb Series `json:"lb"`
}

// Round2 rounds to two decimals, half away from zero. Commercial invoices
// round this way, not banker's rounding.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GlazingFactor derives the multiplicative factor from a glazing percentage.
// 0% is valid and yields 1.00.
func GlazingFactor(percentage int) float64 {
	return Round2(1 - float64(percentage)/100)
}

// chain runs the ordered computation in one unit. Every published figure is
// rounded independently so the chain is idempotent under recomputation.
func chain(base, fixedCost, factor, freight float64) Series {
	net := base - fixedCost
	withGlazing := net * factor
	fobWithGlazing := withGlazing + fixedCost
	final := fobWithGlazing + freight

	return Series{
		Net:            Round2(net),
		WithGlazing:    Round2(withGlazing),
		FOBWithGlazing: Round2(fobWithGlazing),
		Final:          Round2(final),
	}
}

// Compute derives the full price chain for one line item.
//
// Pound-denominated destinations carry a per-pound fixed cost: the stored
// per-kg value is divided by PoundsPerKg before the chain runs, in the
// kilogram series too. Houston never sets UsesPounds and keeps the full
// fixed cost. The pound series then converts base price, fixed cost and
// freight to per-pound values before running the chain; converting the
// rounded kilogram results afterwards would drift by a cent on some sizes.
func Compute(in Inputs) (Quote, error) {
	if in.GlazingFactor == nil {
		return Quote{}, ErrGlazingRequired
	}

	factor := *in.GlazingFactor
	freight := 0.0
	if in.FreightIncluded {
		freight = in.Freight
	}
	fixedCost := in.FixedCostKg
	if in.UsesPounds {
		fixedCost = in.FixedCostKg / PoundsPerKg
	}

	term := TermFOB
	switch {
	case in.DDP:
		term = TermDDP
	case in.FreightIncluded:
		term = TermCFR
	}

	return Quote{
		Product:         in.Product,
		Size:            in.Size,
		BaseKg:          in.BaseKg,
		FixedCostKg:     in.FixedCostKg,
		GlazingFactor:   factor,
		Freight:         freight,
		FreightIncluded: in.FreightIncluded,
		Term:            term,
		UsesPounds:      in.UsesPounds,
		Kg:              chain(in.BaseKg, fixedCost, factor, freight),
		Lb:              chain(in.BaseKg/PoundsPerKg, fixedCost/PoundsPerKg, factor, freight/PoundsPerKg),
	}, nil
}

// WithFreight recomputes a quote with a new freight value, keeping every
// other input. Used by the "modify freight" command on a stored quote.
func (q Quote) WithFreight(freight float64) Quote {
	in := Inputs{
		Product:         q.Product,
		Size:            q.Size,
		BaseKg:          q.BaseKg,
		FixedCostKg:     q.FixedCostKg,
		GlazingFactor:   &q.GlazingFactor,
		Freight:         freight,
		FreightIncluded: true,
		DDP:             q.Term == TermDDP,
		UsesPounds:      q.UsesPounds,
	}
	out, _ := Compute(in)
	return out
}

// Published returns the series the buyer sees for this quote's destination.
func (q Quote) Published() Series {
	if q.UsesPounds {
		return q.Lb
	}
	return q.Kg
}

// PublishedFreight is the freight figure in the published series' unit.
func (q Quote) PublishedFreight() float64 {
	if q.UsesPounds {
		return Round2(q.Freight / PoundsPerKg)
	}
	return q.Freight
}
