// Package config loads and validates the energy sensors service configuration.
//
// Configuration is built in three layers:
//   - Hard-coded defaults
//   - A YAML file (configs/config.yaml, or the path in ENERGYSENSORS_CONFIG)
//   - ENERGYSENSORS_<SECTION>_<KEY> environment variables
//
// Validate reports every problem at once, joined with "; ".
//
// Secrets (MQTT password, InfluxDB token, JWT secret) should be supplied
// through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
