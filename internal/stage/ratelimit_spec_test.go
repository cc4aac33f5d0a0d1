package stage

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RateLimiter", func() {
	var rl *RateLimiter

	AfterEach(func() {
		Expect(rl.Close()).To(Succeed())
	})

	Describe("Allow", func() {
		It("allows requests up to burst size then denies", func() {
			rl = NewRateLimiter(10, 5)
			for i := 0; i < 5; i++ {
				remaining, ok := rl.Allow("key-1")
				Expect(ok).To(BeTrue(), "request %d should be allowed", i+1)
				Expect(remaining).To(Equal(5 - i - 1))
			}
			_, ok := rl.Allow("key-1")
			Expect(ok).To(BeFalse())
		})

		It("keeps independent buckets per key", func() {
			rl = NewRateLimiter(10, 2)
			rl.Allow("key-1")
			rl.Allow("key-1")
			_, ok := rl.Allow("key-1")
			Expect(ok).To(BeFalse())

			_, ok = rl.Allow("key-2")
			Expect(ok).To(BeTrue())
		})
	})

	It("can be closed twice", func() {
		rl = NewRateLimiter(1, 1)
		Expect(rl.Close()).To(Succeed())
	})
})

var _ = Describe("RateLimit stage", func() {
	var (
		rl  *RateLimiter
		end *terminal
	)

	BeforeEach(func() {
		rl = NewRateLimiter(1, 2)
		end = &terminal{}
	})

	AfterEach(func() {
		Expect(rl.Close()).To(Succeed())
	})

	It("sets rate limit headers on the downstream response", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := run(req, keyed("sk-a"), RateLimit(rl), end.handler())

		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("X-RateLimit-Limit")).To(Equal("2"))
		Expect(resp.Header.Get("X-RateLimit-Remaining")).To(Equal("1"))
	})

	It("responds 429 once the burst is spent", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		run(req, keyed("sk-a"), RateLimit(rl), end.handler())
		run(req, keyed("sk-a"), RateLimit(rl), end.handler())

		end = &terminal{}
		resp := run(req, keyed("sk-a"), RateLimit(rl), end.handler())

		Expect(resp.Status).To(Equal(http.StatusTooManyRequests))
		Expect(resp.Header.Get("Retry-After")).To(Equal("1"))
		Expect(resp.Header.Get("X-RateLimit-Remaining")).To(Equal("0"))
		Expect(end.reached).To(BeFalse())
	})

	It("lets requests without an API key through", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for i := 0; i < 5; i++ {
			resp := run(req, nil, RateLimit(rl), end.handler())
			Expect(resp.Status).To(Equal(http.StatusOK))
		}
	})
})
