package strategy

import (
	"math"

	"github.com/angeloszaimis/online-balancer/internal/pool"
)

type leastConnStrategy struct {
}

func (l *leastConnStrategy) SelectServer(servers []*pool.Server) *pool.Server {
	if len(servers) == 0 {
		return nil
	}

	var bestServer *pool.Server
	bestConns := math.MaxInt32

	for _, server := range servers {
		activeConns := server.ActiveConnections()
		if activeConns < bestConns {
			bestConns = activeConns
			bestServer = server
		}
	}

	return bestServer
}

func NewLeastConnStrategy() Strategy {
	return &leastConnStrategy{}
}
