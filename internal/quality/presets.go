package quality

// Built-in presets ordered from lowest to highest capability. Render
// distances and caps follow the tuning the browser client ships with; the
// resolved render distance is treated as opaque by the schedulers.
var builtinPresets = []Profile{
	{
		Name:                     "potato",
		Rank:                     0,
		EnemyUpdateDivisor:       4,
		EnvironmentUpdateDivisor: 5,
		ParticleUpdateDivisor:    3,
		HUDUpdateDivisor:         3,
		RenderDistance:           25,
		MaxEnemies:               12,
		MaxBosses:                1,
		MaxParticles:             64,
	},
	{
		Name:                     "low",
		Rank:                     1,
		EnemyUpdateDivisor:       3,
		EnvironmentUpdateDivisor: 4,
		ParticleUpdateDivisor:    2,
		HUDUpdateDivisor:         2,
		RenderDistance:           32,
		MaxEnemies:               20,
		MaxBosses:                1,
		MaxParticles:             128,
	},
	{
		Name:                     "medium",
		Rank:                     2,
		EnemyUpdateDivisor:       2,
		EnvironmentUpdateDivisor: 2,
		ParticleUpdateDivisor:    1,
		HUDUpdateDivisor:         2,
		RenderDistance:           40,
		MaxEnemies:               32,
		MaxBosses:                2,
		MaxParticles:             256,
	},
	{
		Name:                     "high",
		Rank:                     3,
		EnemyUpdateDivisor:       1,
		EnvironmentUpdateDivisor: 1,
		ParticleUpdateDivisor:    1,
		HUDUpdateDivisor:         1,
		RenderDistance:           55,
		MaxEnemies:               48,
		MaxBosses:                2,
		MaxParticles:             512,
	},
}

// DefaultPresetName is the preset assumed when no override is configured.
const DefaultPresetName = "medium"
