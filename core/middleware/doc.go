// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation via the X-API-Key header.
//   - rayid: a unique request ID (RayID) per request, stored in the "ray_id"
//     local and echoed in the X-Ray-ID response header.
//
// RayID must be registered first so every later log line carries it.
package middleware
