package strategy

import (
	"github.com/angeloszaimis/online-balancer/internal/pool"
)

type Strategy interface {
	SelectServer(servers []*pool.Server) *pool.Server
}
