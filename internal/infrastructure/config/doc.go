// Package config handles loading and validating the OneNET console configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - OneNET API keys and access keys are never written to the config file
//     in production; set ONENETCONSOLE_V1_API_KEY and ONENETCONSOLE_V2_ACCESS_KEY
//   - The config file should have restricted permissions (0600)
//   - The JWT secret only matters when console_auth is enabled
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.OneNET.V1.BaseURL)
package config
