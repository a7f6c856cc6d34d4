package chase

import "math"

// Upper bounds on the sizes a configuration may ask for
const (
	MaxEntities          = 100000
	MaxMapSize           = 1 << 20
	MaxEpisodeStepsLimit = 1000000
	// cells along one side of a grid observation
	MaxGridSide = 1024
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Config is set at construction and never changes afterwards
type Config struct {
	AgentNum          int               `json:"agent_num"`
	AgentTeam         Team              `json:"agent_team"`
	AdversaryNum      int               `json:"adversary_num"`
	MapSize           int               `json:"map_size"`
	AdversaryMode     AdversaryMode     `json:"adversary_action"`
	ObservationFormat ObservationFormat `json:"state_format"`
	ActionEncoding    ActionEncoding    `json:"action_type"`
	AgentSpeed        float64           `json:"agent_speed"`
	AdversarySpeed    float64           `json:"adversary_speed"`
	GridScale         int               `json:"grid_scale"`
	CatchDistance     float64           `json:"min_catch_dist"`
	MaxEpisodeSteps   int               `json:"max_episode_steps"`

	// Only used by the incremental_random spawn policy
	SpawnPolicy      SpawnPolicy `json:"spawn_policy"`
	InitAdversaryNum int         `json:"init_adversary_num"`
	MaxSpawnBatch    int         `json:"max_spawn_batch"`
}

// DefaultConfig is one police agent chasing five randomly walking thieves on
// a 10x10 map, observed through the flattened grid.
func DefaultConfig() Config {
	return Config{
		AgentNum:          1,
		AgentTeam:         Police,
		AdversaryNum:      5,
		MapSize:           10,
		AdversaryMode:     RandomMode,
		ObservationFormat: Grid3DRavel,
		ActionEncoding:    Discrete,
		AgentSpeed:        1,
		AdversarySpeed:    1,
		GridScale:         2,
		CatchDistance:     1,
		MaxEpisodeSteps:   100,
		SpawnPolicy:       FixedSpawn,
		InitAdversaryNum:  1,
		MaxSpawnBatch:     3,
	}
}

// Normalize parses every enumerated field, resolving aliases, and checks the
// numeric ranges. The returned config is the one the environment runs with.
func (c Config) Normalize() (Config, error) {
	var err error
	if c.AgentTeam, err = ParseTeam(string(c.AgentTeam)); err != nil {
		return c, err
	}
	if c.AdversaryMode, err = ParseAdversaryMode(string(c.AdversaryMode)); err != nil {
		return c, err
	}
	if c.ObservationFormat, err = ParseObservationFormat(string(c.ObservationFormat)); err != nil {
		return c, err
	}
	if c.ActionEncoding, err = ParseActionEncoding(string(c.ActionEncoding)); err != nil {
		return c, err
	}
	if c.SpawnPolicy, err = ParseSpawnPolicy(string(c.SpawnPolicy)); err != nil {
		return c, err
	}

	switch {
	case c.AgentNum <= 0:
		return c, configError("agent count must be positive, got %d", c.AgentNum)
	case c.AdversaryNum <= 0:
		return c, configError("adversary count must be positive, got %d", c.AdversaryNum)
	case c.MapSize <= 0:
		return c, configError("map size must be positive, got %d", c.MapSize)
	case c.MaxEpisodeSteps <= 0:
		return c, configError("max episode steps must be positive, got %d", c.MaxEpisodeSteps)
	case c.AgentNum > MaxEntities || c.AdversaryNum > MaxEntities:
		return c, configError("entity counts above %d are not supported", MaxEntities)
	case c.MapSize > MaxMapSize:
		return c, configError("map size above %d is not supported, got %d", MaxMapSize, c.MapSize)
	case c.MaxEpisodeSteps > MaxEpisodeStepsLimit:
		return c, configError("max episode steps above %d are not supported, got %d", MaxEpisodeStepsLimit, c.MaxEpisodeSteps)
	case !finite(c.AgentSpeed) || !finite(c.AdversarySpeed) || !finite(c.CatchDistance):
		return c, configError("speeds and catch distance must be finite")
	case c.AgentSpeed < 0 || c.AdversarySpeed < 0:
		return c, configError("speeds must not be negative")
	case c.CatchDistance < 0:
		return c, configError("catch distance must not be negative, got %g", c.CatchDistance)
	case c.ObservationFormat.IsGrid() && c.GridScale <= 0:
		return c, configError("grid scale must be positive, got %d", c.GridScale)
	case c.ObservationFormat.IsGrid() && c.GridScale > MaxGridSide/c.MapSize:
		return c, configError("grid side of map size %d times scale %d exceeds %d cells", c.MapSize, c.GridScale, MaxGridSide)
	}

	if c.SpawnPolicy == IncrementalRandomSpawn {
		if c.InitAdversaryNum < 0 || c.InitAdversaryNum > c.AdversaryNum {
			return c, configError("initial adversary count %d outside [0, %d]", c.InitAdversaryNum, c.AdversaryNum)
		}
		if c.MaxSpawnBatch < 1 {
			return c, configError("max spawn batch must be positive, got %d", c.MaxSpawnBatch)
		}
	}
	return c, nil
}

// Validate reports whether the configuration can build an environment
func (c Config) Validate() error {
	_, err := c.Normalize()
	return err
}
