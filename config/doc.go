// Package config loads gptshell configuration.
//
// Configuration starts from Default, is overlaid by an optional YAML file
// (Load) and then by GPTOS_* environment variables (ApplyEnv). Credential
// fields may hold secretref: references which ResolveSecrets replaces
// with their values. Validate rejects settings the runtime cannot honor.
package config
