// Package token issues and verifies the HS256 session tokens that bind an
// HTTP caller to one subscriber's external id.
package token
