// Package dedup implements the bounded seen-set shared by news sources.
//
// The Set:
//   - Keys items by a 64-bit fingerprint of their URL
//   - Holds at most Cap() keys; inserting past capacity evicts the oldest insert
//   - Does not refresh a key's position when it is seen again (FIFO, not LRU)
//   - Lives in memory for the process lifetime and is never persisted
package dedup
