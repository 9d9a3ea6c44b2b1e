package storage

// Config holds configuration for the storage provider.
type Config struct {
	// Driver selects the backend implementation (minio, aws, memory).
	Driver string `mapstructure:"driver" default:"minio"`
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the default bucket used when a command does not name one.
	Bucket string `mapstructure:"bucket" default:"test-bucket"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

const (
	DriverMinio  = "minio"
	DriverAWS    = "aws"
	DriverMemory = "memory"
)

// IsValidDriver checks if the configured driver is supported.
func (c Config) IsValidDriver() bool {
	switch c.Driver {
	case DriverMinio, DriverAWS, DriverMemory:
		return true
	default:
		return false
	}
}
