package strategy

import (
	"math/rand"

	"github.com/angeloszaimis/online-balancer/internal/pool"
)

type randomStrategy struct{}

func (r *randomStrategy) SelectServer(servers []*pool.Server) *pool.Server {
	if len(servers) == 0 {
		return nil
	}

	index := rand.Intn(len(servers))
	return servers[index]
}

func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}
