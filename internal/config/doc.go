// Package config provides configuration parsing for Crosstalk daemons.
//
// The configuration is stored in crosstalk.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "my-service",
//	  "listen": {
//	    "addr": ":8080"
//	  },
//	  "tls": {
//	    "enabled": false,
//	    "certFile": "./certs/server.pem",
//	    "keyFile": "./certs/server-key.pem"
//	  },
//	  "limits": {
//	    "writeTimeout": "10s",
//	    "callTimeout": "5s",
//	    "maxMessageSize": 1048576,
//	    "shutdownTimeout": "30s"
//	  },
//	  "client": {
//	    "url": "ws://localhost:8080/ws",
//	    "reconnectInterval": "5s",
//	    "pingInterval": "10s"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv := server.New(cfg.ServerConfig())
package config
