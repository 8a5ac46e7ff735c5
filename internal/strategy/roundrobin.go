package strategy

import (
	"sync/atomic"

	"github.com/angeloszaimis/online-balancer/internal/pool"
)

type roundRobinStrategy struct {
	current uint64
}

func (rb *roundRobinStrategy) SelectServer(servers []*pool.Server) *pool.Server {
	if len(servers) == 0 {
		return nil
	}

	n := atomic.AddUint64(&rb.current, 1)

	index := (n - 1) % uint64(len(servers))

	return servers[index]
}

func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{
		current: 0,
	}
}
