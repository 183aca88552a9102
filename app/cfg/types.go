package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	RedisAddr         string

	// Ingestion configuration
	MinRefetchInterval  int
	NearDupThreshold    float64
	NearDupWindowDays   int
	MinHashPermutations int
	MinHashSeed         int64

	// One-shot mode
	RunOnce    bool
	ForceFetch bool
	SourceName string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
