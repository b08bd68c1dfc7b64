package frontend_test

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"

	"github.com/icecave/courier/forward"
	"github.com/icecave/courier/frontend"
	"github.com/icecave/courier/metrics"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	It("forwards plain requests to the upstream", func() {
		upstream := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "hi")
			},
		))
		defer upstream.Close()

		handler := &frontend.Handler{Options: upstreamOptions(upstream.URL)}
		host := httptest.NewServer(handler)
		defer host.Close()

		response, err := http.Get(host.URL)
		Expect(err).ShouldNot(HaveOccurred())
		defer response.Body.Close()

		body, err := io.ReadAll(response.Body)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(body)).To(Equal("hi"))
	})

	It("renders a status page when the exchange fails before headers", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ShouldNot(HaveOccurred())

		address := listener.Addr().(*net.TCPAddr)
		listener.Close()

		handler := &frontend.Handler{
			Options: &forward.Options{
				Hostname: "127.0.0.1",
				Port:     address.Port,
			},
		}
		host := httptest.NewServer(handler)
		defer host.Close()

		response, err := http.Get(host.URL)
		Expect(err).ShouldNot(HaveOccurred())
		defer response.Body.Close()

		Expect(response.StatusCode).To(Equal(http.StatusServiceUnavailable))

		body, err := io.ReadAll(response.Body)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("503 Service Unavailable"))
	})

	It("records exchange metrics", func() {
		upstream := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "hi")
			},
		))
		defer upstream.Close()

		m := metrics.New()
		handler := &frontend.Handler{
			Options: upstreamOptions(upstream.URL),
			Metrics: m,
		}
		host := httptest.NewServer(handler)
		defer host.Close()

		response, err := http.Get(host.URL)
		Expect(err).ShouldNot(HaveOccurred())
		response.Body.Close()

		recorder := httptest.NewRecorder()
		m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
		Expect(recorder.Body.String()).To(ContainSubstring(
			`courier_exchanges_total{mode="web",status_code="200"} 1`,
		))
	})

	It("relays websocket upgrades through the hijacked connection", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ShouldNot(HaveOccurred())
		defer listener.Close()

		go func() {
			defer GinkgoRecover()

			conn, err := listener.Accept()
			Expect(err).ShouldNot(HaveOccurred())
			defer conn.Close()

			reader := bufio.NewReader(conn)
			_, err = http.ReadRequest(reader)
			Expect(err).ShouldNot(HaveOccurred())

			io.WriteString(conn, "HTTP/1.1 101 Switching Protocols\r\n"+
				"Upgrade: websocket\r\n"+
				"Connection: Upgrade\r\n"+
				"\r\n")

			io.Copy(conn, reader)
		}()

		address := listener.Addr().(*net.TCPAddr)
		handler := &frontend.Handler{
			Options: &forward.Options{
				Hostname: "127.0.0.1",
				Port:     address.Port,
			},
		}
		host := httptest.NewServer(handler)
		defer host.Close()

		hostURL, err := url.Parse(host.URL)
		Expect(err).ShouldNot(HaveOccurred())

		client, err := net.Dial("tcp", hostURL.Host)
		Expect(err).ShouldNot(HaveOccurred())
		defer client.Close()

		_, err = io.WriteString(client, "GET /ws HTTP/1.1\r\n"+
			"Host: example.com\r\n"+
			"Connection: upgrade\r\n"+
			"Upgrade: websocket\r\n"+
			"\r\n")
		Expect(err).ShouldNot(HaveOccurred())

		clientReader := bufio.NewReader(client)

		var preamble strings.Builder
		for {
			line, err := clientReader.ReadString('\n')
			Expect(err).ShouldNot(HaveOccurred())
			preamble.WriteString(line)
			if line == "\r\n" {
				break
			}
		}
		Expect(preamble.String()).To(HavePrefix("HTTP/1.1 101 Switching Protocols\r\n"))

		_, err = io.WriteString(client, "ping")
		Expect(err).ShouldNot(HaveOccurred())

		echoed := make([]byte, 4)
		_, err = io.ReadFull(clientReader, echoed)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(echoed)).To(Equal("ping"))
	})
})

var _ = Describe("IsWebSocketUpgrade", func() {
	It("detects websocket upgrade requests", func() {
		request := httptest.NewRequest("GET", "/", nil)
		request.Header.Set("Connection", "keep-alive, Upgrade")
		request.Header.Set("Upgrade", "websocket")

		Expect(frontend.IsWebSocketUpgrade(request)).To(BeTrue())
	})

	It("ignores non-upgrade requests", func() {
		request := httptest.NewRequest("GET", "/", nil)

		Expect(frontend.IsWebSocketUpgrade(request)).To(BeFalse())
	})

	It("ignores upgrades to other protocols", func() {
		request := httptest.NewRequest("GET", "/", nil)
		request.Header.Set("Connection", "Upgrade")
		request.Header.Set("Upgrade", "h2c")

		Expect(frontend.IsWebSocketUpgrade(request)).To(BeFalse())
	})
})

// upstreamOptions builds forwarding options pointing at a test server URL.
func upstreamOptions(serverURL string) *forward.Options {
	u, err := url.Parse(serverURL)
	Expect(err).ShouldNot(HaveOccurred())

	host, portString, err := net.SplitHostPort(u.Host)
	Expect(err).ShouldNot(HaveOccurred())

	port, err := strconv.Atoi(portString)
	Expect(err).ShouldNot(HaveOccurred())

	return &forward.Options{
		Hostname: host,
		Port:     port,
	}
}
