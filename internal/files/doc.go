// Package files resolves stored report paths into downloadable files.
//
// The ingestion pipeline records every source file by its path relative
// to the configured base directory. Manager turns those stored paths
// back into absolute paths for the download surface, rejecting anything
// that does not resolve to a real file under the base directory.
//
// Example usage:
//
//	manager := files.NewManager(cfg.Paths.BaseDir, logger)
//
//	full, err := manager.Resolve("PKRV/pkrv_20240102.csv")
//	if err != nil {
//	    // files.ErrNotFound or files.ErrOutsideRoot
//	}
package files
