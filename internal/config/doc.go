// Package config provides runtime configuration for signalscope.
//
// Configuration is optional. It is read from signalscope.json or
// signalscope.yaml in the working directory, or from an explicit path.
//
// # Configuration File Structure
//
//	{
//	  "reaper":   { "enabled": true },
//	  "devtools": { "addr": "localhost:6061", "feedBuffer": 64 },
//	  "metrics":  { "namespace": "signalscope", "subsystem": "scope" },
//	  "log":      { "level": "info", "format": "text" }
//	}
//
// The YAML form uses the same keys.
//
// # Usage
//
//	cfg, err := config.LoadOptional(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Log.Logger(os.Stderr)
package config
