// Package healthcheck implements periodic health checking for pool
// servers. It monitors server availability and updates their health
// status based on HTTP health endpoint responses, tracking the pool as
// online-config syncs replace entries.
package healthcheck
