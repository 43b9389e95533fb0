// Package draft provides the printing.DraftStore implementations: device-local
// JSON files, Redis for deployments with several server instances, and an
// in-memory store for tests.
//
// Every store fans changes out to Watch subscribers. The file store also
// reports edits made by other processes sharing the directory, and the Redis
// store relays changes between instances over Pub/Sub.
package draft
