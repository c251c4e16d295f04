// Package ingest validates purchase order uploads, keeps the upload and raw
// files on disk, and reads the CSV outputs of the processing pipeline.
package ingest
