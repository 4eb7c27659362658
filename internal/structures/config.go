package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type BoardConfig struct {
	DataDir     string   `yaml:"dataDir" validate:"required|unixPath"`
	SuperAdmins []string `yaml:"superAdmins"`
	ListLimit   int      `yaml:"listLimit"`
}

type ChainConfig struct {
	BatchThreshold int           `yaml:"batchThreshold" validate:"required|min:1"`
	RetryInterval  time.Duration `yaml:"retryInterval" validate:"required|min:1"`
	AnchorURL      string        `yaml:"anchorUrl"`
	AnchorTimeout  time.Duration `yaml:"anchorTimeout"`
	SigningKeyFile string        `yaml:"signingKeyFile"`
}

type AccessConfig struct {
	OracleURL     string        `yaml:"oracleUrl"`
	OracleTimeout time.Duration `yaml:"oracleTimeout"`
	PosterLevel   int           `yaml:"posterLevel"`
	CacheSize     int           `yaml:"cacheSize"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
}

type NotifyConfig struct {
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Board     BoardConfig   `yaml:"board"`
	Chain     ChainConfig   `yaml:"chain"`
	Access    AccessConfig  `yaml:"access"`
	Notify    NotifyConfig  `yaml:"notify"`
	Logger    LoggerConfig  `yaml:"logger"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
}
