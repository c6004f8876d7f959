// Package ingest turns raw MUFAP report files into unified SQLite tables.
//
// The package is organized around four components:
//
// 1. Scanner: locates the real header row inside a file (reports arrive
// with arbitrary leading metadata rows, mixed encodings and delimiters)
// and re-reads the file from that row into normalized records.
//
// 2. Fingerprints: classify a detected header into one of the known
// record formats (PKRV tenor rates, PKFRV mutual fund contributions).
//
// 3. Loader: writes normalized records into the financial store. PKRV has
// a fixed schema; PKFRV columns vary file to file, so the loader computes
// the union schema across the whole batch before creating the table.
//
// 4. Pipeline: orchestrates a full batch run, fanning out one task per
// file and fanning in before the union-schema step.
//
// Every per-file failure (unreadable preview, unknown format, load error)
// is logged and contained at the file boundary; only a failure of the
// destination store aborts a run.
package ingest
