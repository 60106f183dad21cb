// Package cookie signs and verifies HTTP cookie values with rotating HMAC
// secrets. The session transport uses it so a client cannot forge or tamper
// with its session id.
package cookie
