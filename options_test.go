package dphash

import "testing"

func TestThresholdFloorsAtFour(t *testing.T) {
	cfg := defaultConfig()
	for _, n := range []int{0, 1, 2, 3, 4} {
		if got := cfg.threshold(n); got != cfg.threshold(4) {
			t.Errorf("threshold(%d) = %d, want threshold(4) = %d", n, got, cfg.threshold(4))
		}
	}
	if got, want := cfg.threshold(4), 12; got != want {
		t.Errorf("threshold(4) = %d, want %d (c=2: (1+2)*4)", got, want)
	}
}

func TestTopLevelSizeScalesByKappa(t *testing.T) {
	cfg := defaultConfig()
	if got, want := cfg.topLevelSize(10), 30; got != want {
		t.Errorf("topLevelSize(10) = %d, want %d (kappa=3)", got, want)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  *config
	}{
		{"growth below 1", &config{growthConstant: 0, topScale: 3, hashPrime: 1 << 32}},
		{"topscale below 1", &config{growthConstant: 2, topScale: 0, hashPrime: 1 << 32}},
		{"prime too small", &config{growthConstant: 2, topScale: 3, hashPrime: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.validate(); err == nil {
				t.Error("validate() = nil, want an error")
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaultConfig().validate(); err != nil {
		t.Errorf("validate() on defaults = %v, want nil", err)
	}
}
