// Package model defines the procurement cost entities exchanged between the
// API server, its store and the dashboard.
package model
