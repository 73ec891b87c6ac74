package pairs

import (
	"os"
	"path/filepath"
	"testing"
)

func writePairsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pairs.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write pairs file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writePairsFile(t, `
pairs:
  - symbol: SOLUSDT
    tick_size: 0.01
    lot_size: 0.01
  - symbol: ETHUSDT
    tick_size: 0.01
    lot_size: 0.001
    maker_fee: 0.0005
    taker_fee: 0.0009
`)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d pairs, want 2", len(got))
	}
	if got[0].Symbol != "SOLUSDT" || got[0].TickSize != 0.01 {
		t.Errorf("pair 0 = %+v", got[0])
	}
	if got[1].MakerFee != 0.0005 || got[1].TakerFee != 0.0009 {
		t.Errorf("pair 1 fees = %+v", got[1])
	}
}

func TestLoadRejectsEmptySymbol(t *testing.T) {
	path := writePairsFile(t, `
pairs:
  - tick_size: 0.01
    lot_size: 0.01
`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a pair without a symbol")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestDefaults(t *testing.T) {
	got := Defaults([]string{"SOLUSDT", "BTCUSDT"})
	if len(got) != 2 {
		t.Fatalf("Defaults returned %d pairs", len(got))
	}
	for _, p := range got {
		if p.TickSize != 0.01 || p.LotSize != 0.001 {
			t.Errorf("default pair = %+v", p)
		}
	}
}
