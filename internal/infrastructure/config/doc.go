// Package config handles loading and validating the Nexhome integration configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (NEXHOME_*)
//   - Validation of required fields
//   - Default value handling
//
// The gateway host and serial are the only values without defaults; they
// identify the Nexhome gateway the integration entry is bound to.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Gateway.Serial)
package config
