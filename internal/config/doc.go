// Package config provides configuration parsing for sweetstate tools.
//
// The configuration is stored in sweetstate.json (or sweetstate.yaml)
// in the working directory. This package handles loading, saving, and
// validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "devtools": {
//	    "enabled": true,
//	    "addr": "localhost:7070"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "addr": "localhost:9090",
//	    "namespace": "sweetstate"
//	  },
//	  "snapshot": {
//	    "backend": "sqlite",
//	    "path": "sweetstate.db",
//	    "name": "latest"
//	  },
//	  "logLevel": "info"
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Devtools:", cfg.Devtools.Addr)
package config
