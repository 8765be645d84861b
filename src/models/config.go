package models

// MConfig Structure
type MConfig struct {
	Name        string             `yaml:"name"`
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	LogLevel    string             `yaml:"log_level"`
	GrpcHost    string             `yaml:"grpc_host"`
	GrpcPort    int                `yaml:"grpc_port"`
	SharedStore MSharedStoreConfig `yaml:"shared_store"`
	Network     MNetworkConfig     `yaml:"network"`
	DataSource  MDataSourceConfig  `yaml:"data_source"`
}

type MSharedStoreConfig struct {
	URL                    string `yaml:"url"` // redis://, postgres://, sqlite://; empty disables
	TimeoutMillis          int    `yaml:"timeout_ms"`
	CleanupIntervalMinutes int    `yaml:"cleanup_interval_minutes"`
	HealthIntervalSeconds  int    `yaml:"health_interval_seconds"`
}

type MNetworkConfig struct {
	Enabled               bool     `yaml:"enabled"` // use proxies
	Proxies               []string `yaml:"proxies"`
	RequestTimeout        int      `yaml:"timeout"`
	MaxRetries            int      `yaml:"retries"`
	UserAgent             string   `yaml:"user_agent"`
	PriceTimeoutSeconds   int      `yaml:"price_timeout"`
	HistoryTimeoutSeconds int      `yaml:"history_timeout"`
}

type MDataSourceConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}
