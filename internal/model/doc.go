// Package model defines the shared submodel contract and the per-run model
// registry. Every submodel registers a Definition: declarative metadata
// (required-at-init variables, updated variables, interval bounds, default
// dependencies), a configuration schema fragment, the variable descriptors
// it contributes, and a factory that builds a configured instance from the
// data store and the model's configuration subtree.
//
// Lifecycle is a strict state machine with no skipping and no re-entry:
//
//	Unconfigured -(construct)-> Initialized -(setup)-> Ready
//	Ready -(spinup)-> Ready -(update)*-> Ready -(cleanup)-> Terminated
//
// The driver advances models through the exported RunSetup, RunSpinup,
// RunUpdate and RunCleanup functions, which enforce the transitions.
package model
