package strategy_test

import (
	"net/url"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/online-balancer/internal/pool"
	"github.com/angeloszaimis/online-balancer/internal/strategy"
)

func TestStrategy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Strategy Suite")
}

var _ = Describe("Roundrobin", func() {
	var (
		strat   strategy.Strategy
		servers []*pool.Server
	)

	BeforeEach(func() {
		strat = strategy.NewRoundRobinStrategy()

		servers = []*pool.Server{
			pool.New("", mustParseURL("http://localhost:8081"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8082"), 1, pool.SourceStatic),
			pool.New("", mustParseURL("http://localhost:8083"), 1, pool.SourceStatic),
		}
	})

	Describe("SelectServer", func() {
		Context("with all healthy servers", func() {
			It("should cycle through servers in order", func() {
				Expect(strat.SelectServer(servers)).To(Equal(servers[0]))
				Expect(strat.SelectServer(servers)).To(Equal(servers[1]))
				Expect(strat.SelectServer(servers)).To(Equal(servers[2]))
				Expect(strat.SelectServer(servers)).To(Equal(servers[0]))
			})

			It("should distribute load evenly", func() {
				counts := make(map[string]int)
				for i := 0; i < 300; i++ {
					selected := strat.SelectServer(servers)
					counts[selected.URL().String()]++
				}
				Expect(counts["http://localhost:8081"]).To(Equal(100))
				Expect(counts["http://localhost:8082"]).To(Equal(100))
				Expect(counts["http://localhost:8083"]).To(Equal(100))
			})
		})

		Context("with empty server list", func() {
			It("should return nil", func() {
				Expect(strat.SelectServer([]*pool.Server{})).To(BeNil())
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
