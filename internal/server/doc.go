// Package server exposes the plate detector as an MCP (Model Context
// Protocol) tool server.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line on stdin
// and one response per line on stdout. Supported methods are initialize,
// tools/list, tools/call and ping.
//
// # Available Tools
//
//   - image_load: Load an image and report its metadata
//   - plate_detect: Return every candidate plate box, optionally with
//     per-call detection parameters
//   - plate_annotate: Outline all plates and save the copy under
//     DETECTED_AND_CROPPED_FILES
//   - plate_crop: Return one selected plate, cropped from the original, as
//     base64 PNG
//   - image_edge_detect: Return the Canny edge map for threshold tuning
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process. Files
// the server writes itself are evicted from the cache after each write.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000 and the Go
// error string as data. "No plate detected" is such a failure for
// plate_annotate and plate_crop, while plate_detect reports it as
// found=false.
//
// # Usage
//
//	cfg, _ := config.Load("")
//	srv, err := server.New(cfg, cfg.NewLogger(os.Stderr))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Serve(os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
