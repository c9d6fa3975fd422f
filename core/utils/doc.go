// Package utils provides common utility functions for the push-manager application.
// It includes loose type conversion for values reported by browsers, which
// may arrive as JSON booleans, numbers or strings.
package utils
