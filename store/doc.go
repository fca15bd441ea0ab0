// Package store persists saved projects so they can be shared by id.
//
// Two backends implement Store: MemoryStore keeps projects in process memory
// and RedisStore keeps them as JSON documents in Redis. New picks one from
// the store section of the configuration.
package store
