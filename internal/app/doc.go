// Package app provides application initialization and lifecycle
// management for the report web service. It handles configuration
// loading, store and service wiring, HTTP server setup and graceful
// shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//  1. Load configuration from environment and files
//  2. Initialize logging
//  3. Open the financial store read-only
//  4. Wire the query service and file manager
//  5. Set up HTTP handlers and middleware
//  6. Configure and start the HTTP server
//  7. Set up graceful shutdown handlers
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure active
// requests are completed and database connections are closed. All
// initialization errors are returned to the caller; the app does not
// call os.Exit() directly.
package app
