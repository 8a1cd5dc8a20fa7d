// Package config loads process settings for dnssync.
//
// Settings come from struct-tag defaults, an optional YAML file, a .env file
// and DNSSYNC_* environment variables, in increasing precedence. Nested keys
// map onto variables by replacing dots with underscores:
//
//	store.driver        DNSSYNC_STORE_DRIVER
//	sync.target_timeout DNSSYNC_SYNC_TARGET_TIMEOUT
//	server.addr         DNSSYNC_SERVER_ADDR
package config
