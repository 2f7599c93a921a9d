// Package middleware provides HTTP middleware for the watch mode server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Optional filtering of health check requests
package middleware
