package fees

import (
	"math"
	"testing"
)

func TestDefaultsApplyOnZeroRates(t *testing.T) {
	c := NewCalculator(0, 0)
	s := c.Rates("SOLUSDT")
	if s.MakerRate != DefaultMakerRate || s.TakerRate != DefaultTakerRate {
		t.Errorf("Rates = %+v, want defaults %v/%v", s, DefaultMakerRate, DefaultTakerRate)
	}
}

func TestPerSymbolOverride(t *testing.T) {
	c := NewCalculator(0.001, 0.002)
	c.SetOverride("ETHUSDT", Schedule{MakerRate: 0.0005, TakerRate: 0.0009})

	if s := c.Rates("ETHUSDT"); s.MakerRate != 0.0005 || s.TakerRate != 0.0009 {
		t.Errorf("override Rates = %+v", s)
	}
	if s := c.Rates("SOLUSDT"); s.MakerRate != 0.001 || s.TakerRate != 0.002 {
		t.Errorf("base Rates = %+v", s)
	}
}

func TestFee(t *testing.T) {
	c := NewCalculator(0, 0)

	// 12 SOL at the blended sweep price from a 10@150.10 + 2@150.20 fill.
	avg := (10*150.10 + 2*150.20) / 12
	taker := c.Fee("SOLUSDT", avg, 12, false)
	want := 12 * avg * DefaultTakerRate
	if math.Abs(taker-want) > 1e-9 {
		t.Errorf("taker fee = %v, want %v", taker, want)
	}

	maker := c.Fee("SOLUSDT", 150.10, 10, true)
	if math.Abs(maker-10*150.10*DefaultMakerRate) > 1e-9 {
		t.Errorf("maker fee = %v", maker)
	}
}
