// Package config provides 12-factor configuration for the dispatch daemon.
//
// Configuration is loaded from environment variables with sensible
// defaults.
//
// Environment Variables:
//   - PORT, HOST
//   - SPM_MSG_POOL, SPM_QUEUE_DEPTH, SPM_SIM_MEM
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
