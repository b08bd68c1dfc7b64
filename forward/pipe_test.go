package forward_test

import (
	"io"
	"net"

	"github.com/icecave/courier/forward"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pipe", func() {
	It("relays bytes in both directions until either side closes", func() {
		clientLocal, clientRemote := net.Pipe()
		backendLocal, backendRemote := net.Pipe()

		done := make(chan error, 1)
		go func() {
			done <- forward.Pipe(clientRemote, backendRemote)
		}()

		go clientLocal.Write([]byte("hello"))

		buffer := make([]byte, 5)
		_, err := io.ReadFull(backendLocal, buffer)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(buffer)).To(Equal("hello"))

		go backendLocal.Write([]byte("world"))

		_, err = io.ReadFull(clientLocal, buffer)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(buffer)).To(Equal("world"))

		clientLocal.Close()
		Eventually(done).Should(Receive(BeNil()))

		// the other side is closed as part of teardown
		_, err = backendLocal.Read(buffer)
		Expect(err).Should(HaveOccurred())
	})
})
