package stage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/pipe"
)

type note struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

var _ = Describe("DecodeJSON", func() {
	var end *terminal

	BeforeEach(func() {
		end = &terminal{}
	})

	jsonRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	It("forwards the decoded value as the payload", func() {
		resp := run(jsonRequest(`{"title":"hi","body":"there"}`), nil, DecodeJSON[note](1024), end.handler())

		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(end.payload).To(Equal(note{Title: "hi", Body: "there"}))
		n, ok := pipe.PayloadAs[note](end.params)
		Expect(ok).To(BeTrue())
		Expect(n.Title).To(Equal("hi"))
	})

	DescribeTable("rejects bad bodies with 400",
		func(req *http.Request, limit int64, msg string) {
			resp := run(req, nil, DecodeJSON[note](limit), end.handler())

			Expect(resp.Status).To(Equal(http.StatusBadRequest))
			Expect(end.reached).To(BeFalse())
			var body apierror.Envelope
			Expect(json.Unmarshal(resp.Body, &body)).NotTo(HaveOccurred())
			Expect(body.Error.Message).To(ContainSubstring(msg))
		},
		Entry("empty body", jsonRequest(""), int64(1024), "required"),
		Entry("malformed JSON", jsonRequest(`{"title":`), int64(1024), "Invalid JSON"),
		Entry("unknown field", jsonRequest(`{"colour":"red"}`), int64(1024), "Invalid JSON"),
		Entry("a second JSON value", jsonRequest(`{"title":"hi"} {"body":"x"}`), int64(1024), "single JSON value"),
		Entry("trailing garbage", jsonRequest(`{"title":"hi"} trailing`), int64(1024), "single JSON value"),
		Entry("too large", jsonRequest(`{"title":"`+strings.Repeat("x", 64)+`"}`), int64(16), "too large"),
	)

	It("accepts trailing whitespace after the value", func() {
		resp := run(jsonRequest("{\"title\":\"hi\"}\n  \n"), nil, DecodeJSON[note](1024), end.handler())
		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(end.reached).To(BeTrue())
	})

	It("rejects non-JSON content types", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/echo", strings.NewReader("title=hi"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp := run(req, nil, DecodeJSON[note](1024), end.handler())
		Expect(resp.Status).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("RequireParam", func() {
	It("continues when the param is present", func() {
		end := &terminal{}
		req := httptest.NewRequest(http.MethodGet, "/v1/greet/ada", nil)
		resp := run(req, pipe.NewParams(map[string]string{"name": "ada"}), RequireParam("name"), end.handler())

		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(end.reached).To(BeTrue())
	})

	It("responds 400 naming the param when it is blank", func() {
		end := &terminal{}
		req := httptest.NewRequest(http.MethodGet, "/v1/greet/", nil)
		resp := run(req, pipe.NewParams(map[string]string{"name": " "}), RequireParam("name"), end.handler())

		Expect(resp.Status).To(Equal(http.StatusBadRequest))
		var body apierror.Envelope
		Expect(json.Unmarshal(resp.Body, &body)).NotTo(HaveOccurred())
		Expect(body.Error.Param).To(Equal("name"))
		Expect(end.reached).To(BeFalse())
	})
})
