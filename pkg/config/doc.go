// Package config loads and resolves phalanx configuration.
//
// Configuration comes from three layers, each overriding the previous one:
//
//  1. the built-in Defaults
//  2. the YAML config file (phalanx.yml by default)
//  3. command line flags and their PHALANX_* environment variables
//
// A typical config file looks like this:
//
//	client:
//	  hosts: [127.0.0.1]
//	  port: 9042
//	  protocolVersion: 4
//	  keyspace: my_keyspace
//	  consistency: quorum
//	phalanxStateTable: phalanx_state
//	migration:
//	  directory: migrations
//	  fileSeparator: "-"
//	  fileExtension: cql
//	  invocationDelay: 0
//
// Layering is done with Merge and the result is checked with Validate before
// an engine is created:
//
//	fileCfg, err := config.LoadConfigFile("phalanx.yml")
//	if err != nil {
//		return err
//	}
//
//	cfg := config.Defaults().Merge(fileCfg).Merge(flagCfg)
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config
