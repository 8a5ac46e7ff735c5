// Package balancer selects an upstream server from the pool for each
// request. It filters out unhealthy and address-less entries before
// delegating the choice to the configured strategy.
package balancer
