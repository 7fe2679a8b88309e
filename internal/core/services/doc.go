// Package services implements the driving port interfaces.
// Services contain the retrieval logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on port interfaces; storage engines and model
// providers are injected at startup.
package services
