// Package strategy defines the upstream selection interface and
// implements the available algorithms:
//
//   - Round Robin: Sequential distribution across servers
//   - Random: Random server selection
//   - Least Connections: Routes to the server with fewest active connections
//
// Strategies receive a pre-filtered slice of healthy, routable servers;
// filtering is the balancer's job.
package strategy
