// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration with environment overrides
//   - PromptStore: editable prompt templates, reloaded on change
package file
