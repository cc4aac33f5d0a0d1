package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/julienschmidt/httprouter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RequestID", func() {
	It("generates an ID when the client sends none", func() {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).To(HaveLen(36))
		Expect(rec.Header().Get("X-Request-ID")).To(Equal(seen))
	})

	It("reuses the client's X-Request-ID", func() {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(seen).To(Equal("trace-123"))
		Expect(rec.Header().Get("X-Request-ID")).To(Equal("trace-123"))
	})
})

var _ = DescribeTable("RequestID replaces unusable client IDs",
	func(sent string) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, sent)
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).NotTo(Equal(sent))
		Expect(seen).To(HaveLen(36))
	},
	Entry("with spaces", "id with spaces"),
	Entry("too long", strings.Repeat("a", 129)),
	Entry("with control characters", "id\x00"),
)

var _ = Describe("Recover", func() {
	It("turns a panic into a JSON 500 and logs it", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("handler exploded")
		}), RequestID(), Recover(logger))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		var body map[string]map[string]string
		Expect(json.NewDecoder(rec.Body).Decode(&body)).NotTo(HaveOccurred())
		Expect(body["error"]["type"]).To(Equal("server_error"))
		Expect(buf.String()).To(ContainSubstring("panic recovered"))
		Expect(buf.String()).To(ContainSubstring("handler exploded"))
	})

	It("re-panics http.ErrAbortHandler", func() {
		h := Recover(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		Expect(func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}).To(PanicWith(http.ErrAbortHandler))
	})
})

var _ = Describe("Logging", func() {
	It("logs status and the matched route", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		router := httprouter.New()
		router.SaveMatchedRoutePath = true
		router.Handler(http.MethodGet, "/v1/greet/:name", Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/greet/ada", nil))

		var line map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &line)).NotTo(HaveOccurred())
		Expect(line["msg"]).To(Equal("request"))
		Expect(line["status"]).To(BeNumerically("==", http.StatusTeapot))
		Expect(line["route"]).To(Equal("/v1/greet/:name"))
		Expect(line["path"]).To(Equal("/v1/greet/ada"))
	})

	It("logs server errors at error level", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		var line map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &line)).NotTo(HaveOccurred())
		Expect(line["level"]).To(Equal("ERROR"))
		Expect(line["route"]).To(Equal("/other"))
	})
})

var _ = Describe("Metrics", func() {
	It("passes the response through untouched", func() {
		h := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("queued"))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", nil))

		Expect(rec.Code).To(Equal(http.StatusAccepted))
		Expect(rec.Body.String()).To(Equal("queued"))
	})
})
