// Package config loads build descriptions. A build description is a YAML document naming
// the build, its projects, their configurations and variants, the plugins attached to each
// of them and the settings the engine runs with. Settings start from Make-O-Matic's
// defaults and may be overridden by the document and, afterwards, by the command line.
package config
