package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.MakerFeeRate != 0.00075 || cfg.TakerFeeRate != 0.001 {
		t.Errorf("fee rates = %v/%v", cfg.MakerFeeRate, cfg.TakerFeeRate)
	}
	if !cfg.UseMockFeed || !cfg.EnableOrderWAL {
		t.Errorf("feature defaults = mock %v wal %v, want both on", cfg.UseMockFeed, cfg.EnableOrderWAL)
	}
	if cfg.DefaultDepth != 20 {
		t.Errorf("DefaultDepth = %d, want 20", cfg.DefaultDepth)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SYMBOLS", "SOLUSDT, ETHUSDT ,BTCUSDT")
	t.Setenv("TAKER_FEE_RATE", "0.002")
	t.Setenv("USE_MOCK_FEED", "false")
	t.Setenv("DEFAULT_DEPTH", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if len(cfg.Symbols) != 3 || cfg.Symbols[1] != "ETHUSDT" {
		t.Errorf("Symbols = %v, want trimmed 3-element list", cfg.Symbols)
	}
	if cfg.TakerFeeRate != 0.002 {
		t.Errorf("TakerFeeRate = %v", cfg.TakerFeeRate)
	}
	if cfg.UseMockFeed {
		t.Error("UseMockFeed = true, want false")
	}
	if cfg.DefaultDepth != 5 {
		t.Errorf("DefaultDepth = %d", cfg.DefaultDepth)
	}
}

func TestBadNumericEnvFallsBack(t *testing.T) {
	t.Setenv("MAKER_FEE_RATE", "not-a-number")
	t.Setenv("DEFAULT_DEPTH", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MakerFeeRate != 0.00075 {
		t.Errorf("MakerFeeRate = %v, want default", cfg.MakerFeeRate)
	}
	if cfg.DefaultDepth != 20 {
		t.Errorf("DefaultDepth = %d, want default", cfg.DefaultDepth)
	}
}
