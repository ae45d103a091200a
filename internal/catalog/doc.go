// Package catalog persists pipeline outcomes in SQLite: sheets whose frames
// were extracted and sheets queued for manual review.
package catalog
