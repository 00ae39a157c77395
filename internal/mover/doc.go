// Package mover relocates accepted folders into the target library tree.
//
// The destination is computed from the reviewed proposal as
// Artist/Album (Year) under the configured target root, with path components
// sanitized for cross-platform safety. Same-filesystem moves are a single
// rename; cross-device moves copy into a hidden .partial sibling with
// per-file checksum verification before an atomic rename, so readers of the
// library never observe a half-written album.
package mover
