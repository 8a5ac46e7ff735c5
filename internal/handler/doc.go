// Package handler implements the main HTTP request handler for the
// balancer. It coordinates breaker gating, server selection, upstream
// forwarding, and error handling.
package handler
