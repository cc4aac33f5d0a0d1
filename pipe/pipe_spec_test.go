package pipe

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pipe", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Build", func() {
		It("returns the raw entry point when no error handler is set", func() {
			rec := &recorder{}
			entry := New[*request, string]().Build(rec.passing("A"), rec.responding("B", "R"))

			out, err := entry(ctx, &request{}, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, ok := out.Response()
			Expect(ok).To(BeTrue())
			Expect(resp).To(Equal("R"))
			Expect(rec.calls).To(Equal([]string{"A", "B"}))
		})

		It("returns no response for an empty chain", func() {
			entry := New[*request, string]().Build()
			out, err := entry(ctx, &request{path: "/anything"}, NewParams(map[string]string{"id": "9"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Terminal()).To(BeFalse())
		})

		It("does not leak params between independent calls", func() {
			var seen []any
			entry := New[*request, string]().Build(
				HandlerFunc[*request, string](func(ctx context.Context, r *request, p Params, next Next[string]) (Outcome[string], error) {
					seen = append(seen, p.Get("first"))
					p.Set("first", r.path)
					return next(ctx, r.path)
				}),
				HandlerFunc[*request, string](func(_ context.Context, _ *request, p Params, _ Next[string]) (Outcome[string], error) {
					v, _ := PayloadAs[string](p)
					return Respond(v), nil
				}),
			)

			out1, err := entry(ctx, &request{path: "/one"}, nil)
			Expect(err).NotTo(HaveOccurred())
			out2, err := entry(ctx, &request{path: "/two"}, NewParams(nil))
			Expect(err).NotTo(HaveOccurred())

			r1, _ := out1.Response()
			r2, _ := out2.Response()
			Expect(r1).To(Equal("/one"))
			Expect(r2).To(Equal("/two"))
			Expect(seen).To(Equal([]any{nil, nil}))
		})

		It("is not affected by later changes to the handler slice", func() {
			rec := &recorder{}
			handlers := []Handler[*request, string]{rec.responding("A", "first")}
			entry := New[*request, string]().Build(handlers...)
			handlers[0] = rec.responding("Z", "swapped")

			out, err := entry(ctx, &request{}, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, _ := out.Response()
			Expect(resp).To(Equal("first"))
		})
	})

	Describe("WithErrorHandler", func() {
		It("wraps the raw entry point, which decides the fallback", func() {
			boom := errors.New("boom")
			var (
				wrapCalls int
				caught    error
			)
			fallback := ErrorHandler[*request, string](func(raw EntryPoint[*request, string]) EntryPoint[*request, string] {
				wrapCalls++
				return func(ctx context.Context, req *request, params Params) (Outcome[string], error) {
					out, err := raw(ctx, req, params)
					if err != nil {
						caught = err
						return Respond("fallback"), nil
					}
					return out, nil
				}
			})

			entry := New(WithErrorHandler(fallback)).Build(
				HandlerFunc[*request, string](func(context.Context, *request, Params, Next[string]) (Outcome[string], error) {
					return Continue[string](), boom
				}),
			)
			Expect(wrapCalls).To(Equal(1))

			out, err := entry(ctx, &request{}, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, _ := out.Response()
			Expect(resp).To(Equal("fallback"))
			Expect(caught).To(BeIdenticalTo(boom))

			_, _ = entry(ctx, &request{}, nil)
			Expect(wrapCalls).To(Equal(1))
		})

		It("may leave errors alone", func() {
			boom := errors.New("boom")
			passthrough := ErrorHandler[*request, string](func(raw EntryPoint[*request, string]) EntryPoint[*request, string] {
				return raw
			})
			entry := New(WithErrorHandler(passthrough)).Build(
				HandlerFunc[*request, string](func(context.Context, *request, Params, Next[string]) (Outcome[string], error) {
					return Continue[string](), boom
				}),
			)

			_, err := entry(ctx, &request{}, nil)
			Expect(err).To(BeIdenticalTo(boom))
		})
	})

	Describe("Compose", func() {
		It("applies wrappers with the first one outermost", func() {
			var order []string
			trace := func(name string) ErrorHandler[*request, string] {
				return func(raw EntryPoint[*request, string]) EntryPoint[*request, string] {
					return func(ctx context.Context, req *request, params Params) (Outcome[string], error) {
						order = append(order, name+"-in")
						out, err := raw(ctx, req, params)
						order = append(order, name+"-out")
						return out, err
					}
				}
			}

			entry := New(WithErrorHandler(Compose(trace("A"), trace("B")))).Build(
				HandlerFunc[*request, string](func(context.Context, *request, Params, Next[string]) (Outcome[string], error) {
					order = append(order, "handler")
					return Respond("ok"), nil
				}),
			)

			_, err := entry(ctx, &request{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(order).To(Equal([]string{"A-in", "B-in", "handler", "B-out", "A-out"}))
		})

		It("returns the raw entry point when given nothing", func() {
			entry := New(WithErrorHandler(Compose[*request, string]())).Build(
				HandlerFunc[*request, string](func(context.Context, *request, Params, Next[string]) (Outcome[string], error) {
					return Respond("ok"), nil
				}),
			)
			out, err := entry(ctx, &request{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Terminal()).To(BeTrue())
		})
	})
})
