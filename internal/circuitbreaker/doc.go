// Package circuitbreaker protects the proxy request path from repeatedly
// failing upstream servers. Each server URL gets its own breaker; the
// online-config sync loop deliberately does not use breakers, its only
// retry policy is the next scheduled tick.
package circuitbreaker
