// Package sim implements the concrete entity tables and the systems
// that drive them: entity lifecycle, zombie AI, and the combat
// loop. Grounded on internal/game package (Player,
// Projectile, engine tick loop), generalized from a single flat player
// struct into the columnar CombatUnit/Zombie/Building/Projectile
// tables.
package sim

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// OrderKind is a combat unit's current player-issued order.
type OrderKind uint8

const (
	OrderNone OrderKind = iota
	OrderMove
	OrderAttackMove
	OrderHold
)

// MortalFlags packs the mortal state into a small bitflag byte.
type MortalFlags uint8

const (
	FlagActive MortalFlags = 1 << iota
	FlagDead
)

func (f MortalFlags) Active() bool { return f&FlagActive != 0 }
func (f MortalFlags) Dead() bool   { return f&FlagDead != 0 }

// CombatUnitRow is one row of the CombatUnit table.
type CombatUnitRow struct {
	Position fixedmath.Vec2
	Velocity fixedmath.Vec2
	Facing   fixedmath.Fixed64

	TypeID   uint16
	OwnerSlot uint8

	Health     fixedmath.Fixed64
	MaxHealth  fixedmath.Fixed64
	Damage     fixedmath.Fixed64
	AttackRange fixedmath.Fixed64
	MoveSpeed  fixedmath.Fixed64
	Armor      fixedmath.Fixed64

	AttackCooldownTimer fixedmath.Fixed64
	SmoothedSeparation  fixedmath.Vec2 // RVO EMA state (internal/rvo)
	PreferredVelocity   fixedmath.Vec2 // steering intent set by combat_unit_movement, consumed by rvo next tick

	NoiseLevel  fixedmath.Fixed64 // source strength written into NoiseGrid each tick
	ThreatLevel fixedmath.Fixed64 // source strength written into ThreatGrid each tick

	Order       OrderKind
	OrderTarget fixedmath.Vec2
	TargetUnit  ecs.Handle // current combat target, if any

	GroupID    uint32
	Veterancy  uint8
	KillCount  uint32
	SelectedBy uint8 // bitmask, up to 8 players

	Flags      MortalFlags
	DeathFrame int64

	GarrisonedIn ecs.Handle // building this unit is garrisoned inside, if any

	AggroSource ecs.Handle // last entity that damaged this unit
}

func (r *CombatUnitRow) PositionXY() fixedmath.Vec2 { return r.Position }

// Mortal capability accessors.
func (r *CombatUnitRow) GetHealth() fixedmath.Fixed64 { return r.Health }
func (r *CombatUnitRow) IsDead() bool                 { return r.Flags.Dead() }
func (r *CombatUnitRow) MarkDead(frame int64) {
	r.Flags |= FlagDead
	r.DeathFrame = frame
}
func (r *CombatUnitRow) GetDeathFrame() int64 { return r.DeathFrame }

// ZombieState is the zombie AI state machine's current state.
type ZombieState uint8

const (
	ZombieIdle ZombieState = iota
	ZombieWander
	ZombieChase
	ZombieAttack
	ZombieWaveChase
)

// ZombieTargetKind distinguishes what a zombie's Target handle refers to.
type ZombieTargetKind uint8

const (
	TargetKindNone ZombieTargetKind = iota
	TargetKindUnit
	TargetKindBuilding
)

// ZombieRow is one row of the Zombie table.
type ZombieRow struct {
	Position fixedmath.Vec2
	Velocity fixedmath.Vec2
	Facing   fixedmath.Fixed64

	TypeID uint16

	Health      fixedmath.Fixed64
	MaxHealth   fixedmath.Fixed64
	Damage      fixedmath.Fixed64
	AttackRange fixedmath.Fixed64
	MoveSpeed   fixedmath.Fixed64

	State        ZombieState
	StateTimer   fixedmath.Fixed64
	WanderSeed   int32
	WanderDirection fixedmath.Fixed64

	ThreatSearchRadius fixedmath.Fixed64
	NoiseSearchRadius  fixedmath.Fixed64

	Target     ecs.Handle
	TargetKind ZombieTargetKind
	Aggro      ecs.Handle

	Flow fixedmath.Vec2

	SmoothedSeparation fixedmath.Vec2 // separation EMA state (world.RunSeparation)

	IsWaveZombie bool

	Flags      MortalFlags
	DeathFrame int64
}

func (r *ZombieRow) PositionXY() fixedmath.Vec2 { return r.Position }

func (r *ZombieRow) GetHealth() fixedmath.Fixed64 { return r.Health }
func (r *ZombieRow) IsDead() bool                 { return r.Flags.Dead() }
func (r *ZombieRow) MarkDead(frame int64) {
	r.Flags |= FlagDead
	r.DeathFrame = frame
}
func (r *ZombieRow) GetDeathFrame() int64 { return r.DeathFrame }

// PowerFlags packs building power state bits.
type PowerFlags uint8

const (
	PowerActive PowerFlags = 1 << iota
	PowerRequiresPower
	PowerPowered
)

// ProductionSlot is one entry in a building's fixed 4-slot production queue.
type ProductionSlot struct {
	TypeID       uint16
	Active       bool
	ProgressTicks int32
	TotalTicks    int32
}

const ProductionQueueSize = 4
const BuildingGarrisonCapacity = 6

// BuildingRow is one row of the Building table.
type BuildingRow struct {
	TileX, TileY  int32
	Width, Height int32

	TypeID uint16
	Owner  uint8

	Health    fixedmath.Fixed64
	MaxHealth fixedmath.Fixed64
	Armor     fixedmath.Fixed64

	TurretRange  fixedmath.Fixed64
	TurretDamage fixedmath.Fixed64
	TurretCooldownTimer fixedmath.Fixed64

	ProductionQueue [ProductionQueueSize]ProductionSlot
	RallyPoint      fixedmath.Vec2

	PowerFlags PowerFlags

	NoiseLevel  fixedmath.Fixed64
	ThreatLevel fixedmath.Fixed64

	Garrison     [BuildingGarrisonCapacity]ecs.Handle
	GarrisonSize int

	Flags      MortalFlags
	DeathFrame int64
}

// CenterWorld returns the building's pixel-space bounding box center, given
// a tile size, for distance/threat queries.
func (r *BuildingRow) CenterWorld(tileSize fixedmath.Fixed64) fixedmath.Vec2 {
	halfW := fixedmath.FromInt(int(r.Width)).Mul(tileSize).Div(fixedmath.FromInt(2))
	halfH := fixedmath.FromInt(int(r.Height)).Mul(tileSize).Div(fixedmath.FromInt(2))
	originX := fixedmath.FromInt(int(r.TileX)).Mul(tileSize)
	originY := fixedmath.FromInt(int(r.TileY)).Mul(tileSize)
	return fixedmath.NewVec2(originX.Add(halfW), originY.Add(halfH))
}

// ClosestPoint returns the point on the building's world-space bounding box
// nearest to p, for attack-range checks against the box rather than its
// center point.
func (r *BuildingRow) ClosestPoint(p fixedmath.Vec2, tileSize fixedmath.Fixed64) fixedmath.Vec2 {
	minX := fixedmath.FromInt(int(r.TileX)).Mul(tileSize)
	minY := fixedmath.FromInt(int(r.TileY)).Mul(tileSize)
	maxX := fixedmath.FromInt(int(r.TileX+r.Width)).Mul(tileSize)
	maxY := fixedmath.FromInt(int(r.TileY+r.Height)).Mul(tileSize)
	return fixedmath.NewVec2(p.X.Clamp(minX, maxX), p.Y.Clamp(minY, maxY))
}

func (r *BuildingRow) GetHealth() fixedmath.Fixed64 { return r.Health }
func (r *BuildingRow) IsDead() bool                 { return r.Flags.Dead() }
func (r *BuildingRow) MarkDead(frame int64) {
	r.Flags |= FlagDead
	r.DeathFrame = frame
}
func (r *BuildingRow) GetDeathFrame() int64 { return r.DeathFrame }

// ProjectileFlags packs the projectile's active/homing/splash-falloff bits.
type ProjectileFlags uint8

const (
	ProjActive ProjectileFlags = 1 << iota
	ProjHoming
	ProjSplashFalloff
)

// ProjectileRow is one row of the Projectile table.
type ProjectileRow struct {
	Position fixedmath.Vec2
	Velocity fixedmath.Vec2

	Source ecs.Handle
	Target ecs.Handle

	Damage        fixedmath.Fixed64
	SplashRadius  fixedmath.Fixed64
	PierceCount   uint8
	HomingStrength fixedmath.Fixed64

	MaxRange        fixedmath.Fixed64
	DistanceTraveled fixedmath.Fixed64
	LifetimeFrames   int32

	Flags ProjectileFlags
}

func (r *ProjectileRow) PositionXY() fixedmath.Vec2 { return r.Position }

// PlayerStateRow is one row of the (<=8) PlayerState table.
type PlayerFlags uint8

const (
	PlayerConnected PlayerFlags = 1 << iota
	PlayerDefeated
)

type PlayerStateRow struct {
	Gold          fixedmath.Fixed64
	Energy        fixedmath.Fixed64
	MaxEnergy     fixedmath.Fixed64
	Population    int32
	MaxPopulation int32
	UnlockedTech  uint64 // bitset
	CameraPos     fixedmath.Vec2
	Flags         PlayerFlags
}

// PositionXY satisfies ecs.PositionFunc so player state can live in a table
// alongside every other entity kind; camera position has no gameplay use as
// a spatial key but keeps the storage layer uniform.
func (r *PlayerStateRow) PositionXY() fixedmath.Vec2 { return r.CameraPos }
