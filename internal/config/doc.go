// Package config provides configuration parsing for cellclient.
//
// The configuration is stored in cellclient.json. Durations are written
// in Go duration syntax and converted to a client.Config by Client.
//
// # Configuration File Structure
//
//	{
//	  "servers": ["wss://eu.example.net:443", "ws://127.0.0.1:443"],
//	  "identity": {"name": "bob", "skin": "doge", "color": "f80"},
//	  "secondaryIdentity": {"name": "bob2"},
//	  "reconnect": {"initial": "1s", "max": "30s", "factor": 1.5},
//	  "keepalive": {"interval": "18s", "signatures": ["MultiOgar", "Ogar"]},
//	  "timing": {"render": "16ms", "mouse": "40ms", "respawnDelay": "2s"},
//	  "chat": {"capacity": 50, "minLifetime": "5s"},
//	  "actions": {"perSecond": 25, "burst": 10},
//	  "debug": {"addr": "127.0.0.1:6060"},
//	  "recording": {"dir": "recordings", "bucket": "my-recordings"}
//	}
//
// Missing fields take their defaults.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault("cellclient.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ccfg, err := cfg.Client()
package config
