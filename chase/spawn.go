package chase

import "golang.org/x/exp/rand"

// SpawnPolicy decides when adversaries enter the map
type SpawnPolicy string

const (
	// FixedSpawn places every adversary at reset
	FixedSpawn SpawnPolicy = "fixed"
	// IncrementalRandomSpawn places a few adversaries at reset and injects
	// random sized batches before each step until the total is reached
	IncrementalRandomSpawn SpawnPolicy = "incremental_random"
)

func ParseSpawnPolicy(s string) (SpawnPolicy, error) {
	switch SpawnPolicy(s) {
	case "", FixedSpawn:
		return FixedSpawn, nil
	case IncrementalRandomSpawn:
		return IncrementalRandomSpawn, nil
	default:
		return "", configError("unsupported spawn policy %q", s)
	}
}

type spawner struct {
	policy    SpawnPolicy
	total     int
	initial   int
	maxBatch  int
	remaining int
}

func newSpawner(cfg Config) *spawner {
	s := &spawner{
		policy:   cfg.SpawnPolicy,
		total:    cfg.AdversaryNum,
		initial:  cfg.AdversaryNum,
		maxBatch: cfg.MaxSpawnBatch,
	}
	if s.policy == IncrementalRandomSpawn {
		s.initial = cfg.InitAdversaryNum
	}
	return s
}

// reset returns the number of adversaries to place at the start of an episode
func (s *spawner) reset() int {
	s.remaining = s.total - s.initial
	return s.initial
}

// draw returns how many adversaries to inject before the next step without
// taking them from the remaining count. The batch size is drawn from
// [1, maxBatch).
func (s *spawner) draw(rng *rand.Rand) int {
	if s.policy != IncrementalRandomSpawn || s.remaining <= 0 {
		return 0
	}
	n := 1
	if s.maxBatch > 2 {
		n = 1 + rng.Intn(s.maxBatch-1)
	}
	if n > s.remaining {
		n = s.remaining
	}
	return n
}

// commit takes n spawned adversaries from the remaining count
func (s *spawner) commit(n int) {
	s.remaining -= n
}

// batch draws and commits in one go
func (s *spawner) batch(rng *rand.Rand) int {
	n := s.draw(rng)
	s.commit(n)
	return n
}

func (s *spawner) exhausted() bool {
	return s.remaining <= 0
}

// spawnArea samples integer start positions. Police start inside a square
// around the map centre, thieves start in the band outside a larger square.
type spawnArea struct {
	mapSize  int
	policeLo int
	policeHi int
	thiefLo  int
	thiefHi  int
}

func newSpawnArea(mapSize int) spawnArea {
	center := mapSize / 2
	policeRadius := int(float64(mapSize) * 0.1)
	thiefRadius := int(float64(mapSize) * 0.4)
	return spawnArea{
		mapSize:  mapSize,
		policeLo: center - policeRadius,
		policeHi: center + policeRadius,
		thiefLo:  center - thiefRadius,
		thiefHi:  center + thiefRadius,
	}
}

// randInt draws uniformly from the closed interval [lo, hi]
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func (a spawnArea) sample(team Team, rng *rand.Rand) Position {
	if team == Police {
		return Position{
			X: float64(randInt(rng, a.policeLo, a.policeHi)),
			Y: float64(randInt(rng, a.policeLo, a.policeHi)),
		}
	}
	return Position{X: a.outerCoord(rng), Y: a.outerCoord(rng)}
}

func (a spawnArea) outerCoord(rng *rand.Rand) float64 {
	low := randInt(rng, 0, a.thiefLo)
	high := randInt(rng, a.thiefHi, a.mapSize)
	if rng.Intn(2) == 0 {
		return float64(low)
	}
	return float64(high)
}

func (a spawnArea) sampleN(team Team, n int, rng *rand.Rand) []Position {
	out := make([]Position, n)
	for i := range out {
		out[i] = a.sample(team, rng)
	}
	return out
}
