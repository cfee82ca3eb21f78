package seed

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

// Generation defaults.
const (
	defaultMaxVideoMS = 90 * 60 * 1000
	coordChance       = 2 // one in coordChance events carries a coordinate
	maxCoord          = 1920
)

var (
	defaultEvents = []string{"pass", "shot", "goal", "foul", "corner"} //nolint:gochecknoglobals // fallback vocabulary
	defaultTeams  = []string{"home", "away"}                           //nolint:gochecknoglobals // fallback vocabulary
)
