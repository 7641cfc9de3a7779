// Package config is the single source of truth for every tunable named in
// the full configuration surface. All values are fixed at World
// construction (changing any requires a restart in single-player and a
// coordinator broadcast in networked play, per this design) — this package only
// produces the immutable value, it never watches for change.
//
// Grounded on internal/config/config.go: one Default*()
// constructor per concern plus a *FromEnv() override layer, composed into a
// single Load() entry point.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MapConfig describes the fixed map dimensions and tile size.
type MapConfig struct {
	WidthTiles  int
	HeightTiles int
	TileSizePx  int
}

func DefaultMap() MapConfig {
	return MapConfig{WidthTiles: 256, HeightTiles: 256, TileSizePx: 32}
}

// SimConfig controls the fixed tick rate and per-entity table capacities.
type SimConfig struct {
	TickRateHz       int
	MaxCombatUnits   int
	MaxZombies       int
	MaxBuildings     int
	MaxProjectiles   int
	MaxPlayers       int
	MaxResourceNodes int

	DeathDelayUnitFrames     int32
	DeathDelayBuildingFrames int32
}

func DefaultSim() SimConfig {
	return SimConfig{
		TickRateHz:               30,
		MaxCombatUnits:           4000,
		MaxZombies:               50000,
		MaxBuildings:             2000,
		MaxProjectiles:           2000,
		MaxPlayers:               8,
		MaxResourceNodes:         512,
		DeathDelayUnitFrames:     10,
		DeathDelayBuildingFrames: 30,
	}
}

// GridConfig controls the noise/threat/separation grid services.
type GridConfig struct {
	NoiseGridSize       int
	NoiseCellSizePx     int
	NoiseDecayPerSecond float64

	ThreatGridSize           int
	ThreatCellSizePx         int
	ThreatDecayPerSecond     float64
	PeakDecayPerSecond       float64
	NoiseSpilloverMultiplier float64
	ChaseThreshold           float64
	LoseInterestThreshold    float64

	SeparationGridSize       int
	SeparationMinDensity     float64
	SeparationForceScale     float64
	SeparationSmoothingAlpha float64
}

func DefaultGrid() GridConfig {
	return GridConfig{
		NoiseGridSize:            32,
		NoiseCellSizePx:          256,
		NoiseDecayPerSecond:      20,
		ThreatGridSize:           64,
		ThreatCellSizePx:         128,
		ThreatDecayPerSecond:     8,
		PeakDecayPerSecond:       1,
		NoiseSpilloverMultiplier: 0.5,
		ChaseThreshold:           40,
		LoseInterestThreshold:    15,
		SeparationGridSize:       64,
		SeparationMinDensity:     1.5,
		SeparationForceScale:     18,
		SeparationSmoothingAlpha: 0.2,
	}
}

// PathfindingConfig controls the sector/zone/flow-field subsystem.
type PathfindingConfig struct {
	SectorSizeTiles  int
	WallCostFactor   float64
	MinFlowMagnitude float64

	MultiTargetLRUCapacity int
	SingleDestLRUCapacity  int
	TargetSetLRUCapacity   int
	RecentPathsLRUCapacity int
	TargetSetMaxRecursion  int
}

func DefaultPathfinding() PathfindingConfig {
	return PathfindingConfig{
		SectorSizeTiles:        16,
		WallCostFactor:         2.0,
		MinFlowMagnitude:       0.0001,
		MultiTargetLRUCapacity: 256,
		SingleDestLRUCapacity:  256,
		TargetSetLRUCapacity:   128,
		RecentPathsLRUCapacity: 256,
		TargetSetMaxRecursion:  10,
	}
}

// RVOConfig controls the crowd-avoidance solver.
type RVOConfig struct {
	NeighborRadius     float64
	MaxNeighbors       int
	TimeHorizon        float64
	AvoidanceWeight    float64
	MaxAvoidanceForce  float64
	SmoothingAlpha     float64
	DefaultAgentRadius float64
}

func DefaultRVO() RVOConfig {
	return RVOConfig{
		NeighborRadius:     160,
		MaxNeighbors:       8,
		TimeHorizon:        2.0,
		AvoidanceWeight:    1.0,
		MaxAvoidanceForce:  200,
		SmoothingAlpha:     0.35,
		DefaultAgentRadius: 14,
	}
}

// ZombieAIConfig controls the state-machine timers and search radii shared
// by every zombie — per-type stat tuning (content/balance) is
// explicitly out of scope, so these are the ambient constants every zombie
// uses regardless of type.
type ZombieAIConfig struct {
	IdleTimerMinFrames   int
	IdleTimerMaxFrames   int
	WanderTimerMinFrames int
	WanderTimerMaxFrames int
	AttackCooldownSeconds float64
	TargetAcquisitionRange float64
	WaveChaseCenterRadius  float64
}

func DefaultZombieAI() ZombieAIConfig {
	return ZombieAIConfig{
		IdleTimerMinFrames:     30,
		IdleTimerMaxFrames:     90,
		WanderTimerMinFrames:   60,
		WanderTimerMaxFrames:   180,
		AttackCooldownSeconds:  1.0,
		TargetAcquisitionRange: 320,
		WaveChaseCenterRadius:  64,
	}
}

// CombatConfig controls the combat loop's projectile and targeting tunables
// that apply across every combat unit type.
type CombatConfig struct {
	ProjectileHitRadius     float64
	ProjectileLifetimeFrames int32
	ProjectileSpeed          float64
}

func DefaultCombat() CombatConfig {
	return CombatConfig{
		ProjectileHitRadius:      16,
		ProjectileLifetimeFrames: 90,
		ProjectileSpeed:          400,
	}
}

// RollbackConfig controls the netcode ring buffers and stall threshold.
type RollbackConfig struct {
	SnapshotRingSize          int
	MaxFramesAheadOfConfirmed int
	InputRedundancyFrames     int
}

func DefaultRollback() RollbackConfig {
	return RollbackConfig{
		SnapshotRingSize:          8,
		MaxFramesAheadOfConfirmed: 4,
		InputRedundancyFrames:     3,
	}
}

// ServerConfig controls the ambient observability HTTP surface.
type ServerConfig struct {
	Port int
}

func DefaultServer() ServerConfig {
	return ServerConfig{Port: 8090}
}

func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("SIM_DEBUG_PORT", 0); p > 0 {
		cfg.Port = p
	}
	return cfg
}

// AppConfig is the complete, immutable configuration surface.
type AppConfig struct {
	Map         MapConfig
	Sim         SimConfig
	Grid        GridConfig
	Pathfinding PathfindingConfig
	RVO         RVOConfig
	ZombieAI    ZombieAIConfig
	Combat      CombatConfig
	Rollback    RollbackConfig
	Server      ServerConfig
}

// Load reads an optional .env file (dev convenience, established pattern) then
// returns the complete configuration with environment overrides layered on
// top of the defaults.
func Load() AppConfig {
	_ = godotenv.Load() // optional; missing .env is not an error

	cfg := AppConfig{
		Map:         DefaultMap(),
		Sim:         DefaultSim(),
		Grid:        DefaultGrid(),
		Pathfinding: DefaultPathfinding(),
		RVO:         DefaultRVO(),
		ZombieAI:    DefaultZombieAI(),
		Combat:      DefaultCombat(),
		Rollback:    DefaultRollback(),
		Server:      ServerFromEnv(),
	}

	if w := getEnvInt("SIM_MAP_WIDTH_TILES", 0); w > 0 {
		cfg.Map.WidthTiles = w
	}
	if h := getEnvInt("SIM_MAP_HEIGHT_TILES", 0); h > 0 {
		cfg.Map.HeightTiles = h
	}
	if tr := getEnvInt("SIM_TICK_RATE", 0); tr > 0 {
		cfg.Sim.TickRateHz = tr
	}

	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
