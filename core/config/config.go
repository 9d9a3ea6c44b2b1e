package config

import (
	"reflect"
	"strings"

	"transfer-manager/core/database"
	"transfer-manager/core/logger"
	"transfer-manager/core/server"
	"transfer-manager/core/storage"
	"transfer-manager/core/transfer"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage endpoint.
	Storage storage.Config `mapstructure:"storage"`
	// Transfer holds streaming and retry settings.
	Transfer transfer.Config `mapstructure:"transfer"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the transfer ledger database.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads configuration from environment variables and a .env file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is normal outside development.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. STORAGE_ENDPOINT -> storage.endpoint)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers every 'mapstructure' key with its
// 'default' tag value, so AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set, even when empty, to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
