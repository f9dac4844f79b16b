// Package cache stores synthesized speech so repeated requests skip the
// engine. It layers an in-memory LRU cache over a zstd-compressed disk
// cache with age-based cleanup.
package cache
