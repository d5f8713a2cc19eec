// Package app wires application dependencies for the CLI.
//
// It loads Config from YAML, .env and the environment, then builds the
// concrete stores, chain client and high-level services, exposing them via
// App for commands to use.
package app
