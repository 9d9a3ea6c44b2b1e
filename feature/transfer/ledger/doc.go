// Package ledger records transfers in a relational database through GORM.
//
// One row per object key holds the upload metadata, the BLAKE3 digest of the
// payload and the last known transfer state. The integrity audit compares
// stored objects against these digests.
package ledger
