// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in ~/.courselens/config.toml. Dotted keys are
// written as TOML tables, so "embedding.model" becomes:
//
//	[embedding]
//	model = "nomic-embed-text"
package file
