// Package server holds the HTTP server configuration.
//
// The start command owns the Fiber application; this package only defines
// the listen port, the API key and the request body limit that bounds
// multipart uploads.
package server
