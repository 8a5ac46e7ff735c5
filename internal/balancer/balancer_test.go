package balancer_test

import (
	"net/url"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/online-balancer/internal/balancer"
	"github.com/angeloszaimis/online-balancer/internal/pool"
	"github.com/angeloszaimis/online-balancer/internal/strategy"
)

func TestBalancer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Balancer Suite")
}

var _ = Describe("Balancer", func() {
	var (
		b       *balancer.Balancer
		servers []*pool.Server
	)

	BeforeEach(func() {
		strat := strategy.NewRoundRobinStrategy()
		b = balancer.NewBalancer(strat)

		servers = []*pool.Server{
			pool.New("", mustParseURL("http://localhost:8081"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8082"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8083"), 1, pool.SourceStatic),
		}
	})

	Describe("NewBalancer", func() {
		It("should create a balancer with the given strategy", func() {
			Expect(b).NotTo(BeNil())
			Expect(b.Strategy()).NotTo(BeNil())
		})
	})

	Describe("GetAndReserveServer", func() {
		Context("with all healthy servers", func() {
			It("should return a server", func() {
				server, err := b.GetAndReserveServer(servers)
				Expect(err).NotTo(HaveOccurred())
				Expect(server).NotTo(BeNil())
			})

			It("should reserve a connection on the chosen server", func() {
				server, err := b.GetAndReserveServer(servers)
				Expect(err).NotTo(HaveOccurred())
				Expect(server.ActiveConnections()).To(Equal(1))
			})
		})

		Context("with some unhealthy servers", func() {
			BeforeEach(func() {
				servers[0].SetHealthy(false)
				servers[2].SetHealthy(false)
			})

			It("should only select healthy servers", func() {
				for i := 0; i < 5; i++ {
					server, err := b.GetAndReserveServer(servers)
					Expect(err).NotTo(HaveOccurred())
					Expect(server).To(Equal(servers[1]))
				}
			})
		})

		Context("with address-less servers", func() {
			It("should never select an unroutable server", func() {
				mixed := []*pool.Server{
					pool.New("bare", nil, 1, pool.OnlineSource("primary")),
					servers[0],
				}

				for i := 0; i < 5; i++ {
					server, err := b.GetAndReserveServer(mixed)
					Expect(err).NotTo(HaveOccurred())
					Expect(server).To(Equal(servers[0]))
				}
			})
		})

		Context("with no healthy servers", func() {
			BeforeEach(func() {
				for _, s := range servers {
					s.SetHealthy(false)
				}
			})

			It("should return an error", func() {
				server, err := b.GetAndReserveServer(servers)
				Expect(err).To(HaveOccurred())
				Expect(server).To(BeNil())
			})
		})
	})
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
