// Package fees applies maker/taker fee schedules to fills.
package fees

// Default rates mirror common spot schedules: makers pay 7.5 bps less a
// rebate tier, takers pay 10 bps.
const (
	DefaultMakerRate = 0.00075
	DefaultTakerRate = 0.001
)

// Schedule holds the maker/taker rates for one venue or pair.
type Schedule struct {
	MakerRate float64
	TakerRate float64
}

// Calculator computes fees for fills. Rates come from configuration, with
// optional per-symbol overrides loaded from the pairs file.
type Calculator struct {
	base      Schedule
	overrides map[string]Schedule
}

// NewCalculator creates a calculator with the given base schedule. Zero rates
// fall back to the defaults.
func NewCalculator(maker, taker float64) *Calculator {
	if maker == 0 {
		maker = DefaultMakerRate
	}
	if taker == 0 {
		taker = DefaultTakerRate
	}
	return &Calculator{
		base:      Schedule{MakerRate: maker, TakerRate: taker},
		overrides: make(map[string]Schedule),
	}
}

// SetOverride installs a per-symbol schedule.
func (c *Calculator) SetOverride(symbol string, s Schedule) {
	c.overrides[symbol] = s
}

// Rates returns the effective schedule for a symbol.
func (c *Calculator) Rates(symbol string) Schedule {
	if s, ok := c.overrides[symbol]; ok {
		return s
	}
	return c.base
}

// Fee computes the fee for a single fill in quote currency.
func (c *Calculator) Fee(symbol string, price, qty float64, isMaker bool) float64 {
	s := c.Rates(symbol)
	rate := s.TakerRate
	if isMaker {
		rate = s.MakerRate
	}
	return price * qty * rate
}
