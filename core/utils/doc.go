// Package utils provides small helpers shared across packages: query value
// conversion and filename handling.
package utils
