// Copyright (c) CodeCage Authors.
// Licensed under the MIT License.

/*
Package config loads security-core overrides from a YAML file for embedding
applications that prefer declarative configuration over building the value
structs in code.

The core packages (validator, sandbox, spawn) never read files themselves:
this package parses YAML into their plain configuration values and hands
them over. Unknown YAML keys are an error, so a typoed security knob fails
loudly instead of silently keeping a default.
*/
package config
