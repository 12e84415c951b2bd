// Package config holds the format-agnostic configuration model: a generic
// nested key-value tree with source tracking, an additive merge that rejects
// duplicate keys across documents, and a composable validation step in which
// the core and every registered model contribute a schema fragment.
//
// Parsing a concrete document format into trees is the job of a loader (see
// package hclconf); this package never touches the file system.
package config
