// Package memory provides an in-process KV engine for the FinTrack session client.
//
// It implements storage.KVEngine on a plain map guarded by a RWMutex.
// Nothing survives the process; it backs the CLI --ephemeral mode and tests.
//
// Thread Safety:
//
// All operations are thread-safe. WriteBatch holds the write lock for the
// whole batch, so readers never observe a partially applied batch.
package memory
