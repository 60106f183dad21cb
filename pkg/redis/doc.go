// Package redis provides Redis connection management with startup retries and
// a health check probe. Sessions and the seller subscription-validity cache
// (svc/auth) build on the returned client.
package redis
