// Package config loads the mirrorindex YAML configuration.
//
// All fields are optional and fall back to defaults:
//
//	root: .
//	out: web/public
//	formats: [index, categories]
//	pretty: true
//	ignore: [.git, node_modules, ...]
//	loader:
//	  cache_max_age: 30s
//
// MIRRORINDEX_CACHE_MAX_AGE_MS and MIRRORINDEX_DB_PATH override the file;
// command-line flags override both.
package config
