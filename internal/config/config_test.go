package config

import (
	"os"
	"testing"
)

func TestDefaultSimHasPositiveCapacities(t *testing.T) {
	s := DefaultSim()
	if s.TickRateHz != 30 {
		t.Errorf("TickRateHz = %d, want 30", s.TickRateHz)
	}
	if s.MaxZombies <= 0 || s.MaxCombatUnits <= 0 {
		t.Errorf("capacities must be positive: %+v", s)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("SIM_TICK_RATE", "60")
	defer os.Unsetenv("SIM_TICK_RATE")

	cfg := Load()
	if cfg.Sim.TickRateHz != 60 {
		t.Errorf("TickRateHz = %d, want 60 (env override)", cfg.Sim.TickRateHz)
	}
}

func TestGridConfigThresholdsOrdered(t *testing.T) {
	g := DefaultGrid()
	if g.LoseInterestThreshold >= g.ChaseThreshold {
		t.Errorf("LoseInterestThreshold (%v) must be below ChaseThreshold (%v)", g.LoseInterestThreshold, g.ChaseThreshold)
	}
}
