package balancer

import (
	"fmt"
	"sync"

	"github.com/angeloszaimis/online-balancer/internal/pool"
	"github.com/angeloszaimis/online-balancer/internal/strategy"
)

type Balancer struct {
	strategy strategy.Strategy
	mutex    sync.Mutex
}

func NewBalancer(strategy strategy.Strategy) *Balancer {
	return &Balancer{
		strategy: strategy,
		mutex:    sync.Mutex{},
	}
}

// GetAndReserveServer picks a healthy, routable server with the configured
// strategy and reserves a connection on it. The caller must release the
// reservation with DecrementConn when the request finishes.
func (b *Balancer) GetAndReserveServer(servers []*pool.Server) (*pool.Server, error) {
	b.mutex.Lock()

	available := b.filterAvailableServers(servers)
	if len(available) == 0 {
		b.mutex.Unlock()
		return nil, fmt.Errorf("no healthy servers")
	}

	chosen := b.strategy.SelectServer(available)
	b.mutex.Unlock()

	if chosen == nil {
		return nil, fmt.Errorf("strategy returned nil server")
	}

	chosen.IncrementConn()
	return chosen, nil
}

func (b *Balancer) filterAvailableServers(servers []*pool.Server) []*pool.Server {
	available := make([]*pool.Server, 0, len(servers))

	for _, s := range servers {
		if s.Routable() && s.IsHealthy() {
			available = append(available, s)
		}
	}

	return available
}

func (b *Balancer) Strategy() strategy.Strategy {
	return b.strategy
}
