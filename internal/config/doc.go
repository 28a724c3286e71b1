// Package config loads galeractl's configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. An optional YAML file (galeractl.yaml in the working directory unless
//     a path is given)
//  3. GALERACTL_* environment variables ([ApplyEnv])
//
// Secrets such as the SSH password are expected to come from the
// environment rather than the file.
package config
