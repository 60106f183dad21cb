// Package mongo provides MongoDB connection management: environment-driven
// configuration, startup retries, pooling defaults, and a health check probe.
// The record store (package store) builds on the returned *mongo.Database.
package mongo
