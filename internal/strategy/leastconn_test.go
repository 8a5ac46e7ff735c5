package strategy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/online-balancer/internal/pool"
	"github.com/angeloszaimis/online-balancer/internal/strategy"
)

var _ = Describe("Leastconn", func() {
	var (
		strat   strategy.Strategy
		servers []*pool.Server
	)

	BeforeEach(func() {
		strat = strategy.NewLeastConnStrategy()

		servers = []*pool.Server{
			pool.New("", mustParseURL("http://localhost:8081"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8082"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8083"), 1, pool.SourceStatic),
		}
	})

	Describe("SelectServer", func() {
		It("should select the server with fewest active connections", func() {
			servers[0].IncrementConn()
			servers[0].IncrementConn()
			servers[1].IncrementConn()

			Expect(strat.SelectServer(servers)).To(Equal(servers[2]))
		})

		It("should select the first server on a tie", func() {
			Expect(strat.SelectServer(servers)).To(Equal(servers[0]))
		})

		It("should track connections as they are released", func() {
			servers[0].IncrementConn()
			servers[1].IncrementConn()
			servers[2].IncrementConn()
			servers[1].DecrementConn()

			Expect(strat.SelectServer(servers)).To(Equal(servers[1]))
		})

		Context("with empty server list", func() {
			It("should return nil", func() {
				Expect(strat.SelectServer(nil)).To(BeNil())
			})
		})
	})
})

var _ = Describe("Random", func() {
	var (
		strat   strategy.Strategy
		servers []*pool.Server
	)

	BeforeEach(func() {
		strat = strategy.NewRandomStrategy()

		servers = []*pool.Server{
			pool.New("", mustParseURL("http://localhost:8081"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8082"), 1, pool.SourceStatic),
		}
	})

	Describe("SelectServer", func() {
		It("should always pick one of the given servers", func() {
			for i := 0; i < 50; i++ {
				Expect(servers).To(ContainElement(strat.SelectServer(servers)))
			}
		})

		Context("with empty server list", func() {
			It("should return nil", func() {
				Expect(strat.SelectServer(nil)).To(BeNil())
			})
		})
	})
})
