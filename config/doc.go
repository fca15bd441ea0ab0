// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and CODELAB_-prefixed environment variables.
// It covers server transport, logging, sandbox limits, guest languages and
// the project store backend.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Script timeout: %s\n", cfg.GetTimeout())
package config
