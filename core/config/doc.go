// Package config provides configuration management for the Transfer Manager.
//
// It uses Viper to read environment variables, optionally seeded from a .env
// file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port and API key
//   - Storage: driver (minio, aws, memory), endpoint, credentials, default bucket
//   - Transfer: download chunk size and caller-side retry budget
//   - Log: level and format
//   - Database: optional transfer ledger connection
//
// Environment keys are the upper-cased section and field joined by an
// underscore, e.g. STORAGE_ENDPOINT or TRANSFER_CHUNK_SIZE.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Bucket)
package config
