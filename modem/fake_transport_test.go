package modem

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// FakeTransport is a test helper that simulates a blocking transport using
// channels. Reads block until data is queued (like a real serial port
// would), which the Loop's reader goroutine relies on.
//
// Every Write is recorded and passed to Respond; a non-empty answer is
// queued as if the modem had sent it.
type FakeTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	pending  []byte
	closed   bool
	writes   []string
	bauds    []int

	// Respond, when set, answers writes. It runs on the writing goroutine.
	Respond func(written string) string
}

// NewFakeTransport creates a new fake transport for testing.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		readChan: make(chan []byte, 64),
	}
}

func (t *FakeTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	t.writes = append(t.writes, string(p))
	respond := t.Respond
	t.mu.Unlock()

	if respond != nil {
		if resp := respond(string(p)); resp != "" {
			t.SendData(resp)
		}
	}
	return len(p), nil
}

// Read hands out queued data; data larger than p is kept for the next call.
func (t *FakeTransport) Read(p []byte) (n int, err error) {
	if len(t.pending) == 0 {
		data, ok := <-t.readChan
		if !ok {
			return 0, io.EOF
		}
		t.pending = data
	}
	n = copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *FakeTransport) SetBaudRate(baud int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bauds = append(t.bauds, baud)
	return nil
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *FakeTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes returns everything written so far, one entry per Write call.
func (t *FakeTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// BaudRates returns the rates passed to SetBaudRate.
func (t *FakeTransport) BaudRates() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.bauds...)
}

// ESPResponder answers like ESP8285 AT firmware with echo disabled: every
// handshake command succeeds, sends are accepted. Commands listed in fail
// are answered with the given response instead.
func ESPResponder(fail map[string]string) func(string) string {
	var sending bool
	return func(written string) string {
		if sending {
			sending = false
			return fmt.Sprintf("\r\nRecv %d bytes\r\n\r\nSEND OK\r\n", len(written))
		}

		cmd := strings.TrimSuffix(written, "\r\n")
		for prefix, resp := range fail {
			if strings.HasPrefix(cmd, prefix) {
				return resp
			}
		}

		switch {
		case strings.HasPrefix(cmd, "AT+CWJAP_CUR="):
			return "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n"
		case cmd == "AT+CIPSTA_CUR?":
			return "+CIPSTA_CUR:ip:\"192.168.4.2\"\r\n" +
				"+CIPSTA_CUR:gateway:\"192.168.4.1\"\r\n" +
				"+CIPSTA_CUR:netmask:\"255.255.255.0\"\r\n\r\nOK\r\n"
		case strings.HasPrefix(cmd, "AT+CIPSTART="):
			return "CONNECT\r\n\r\nOK\r\n"
		case strings.HasPrefix(cmd, "AT+CIPSEND="):
			sending = true
			return "\r\nOK\r\n> "
		default:
			return "\r\nOK\r\n"
		}
	}
}

// FakeDevice is a network device fed by the test. Written packets are
// delivered on Written in order.
type FakeDevice struct {
	mu      sync.Mutex
	packets []string
	inbound chan []byte
	closed  bool

	Written chan string
	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		inbound: make(chan []byte, 16),
		Written: make(chan string, 64),
	}
}

func (d *FakeDevice) Read(p []byte) (int, error) {
	pkt, ok := <-d.inbound
	if !ok {
		return 0, io.EOF
	}
	return copy(p, pkt), nil
}

func (d *FakeDevice) Write(p []byte) (int, error) {
	if d.WriteErr != nil {
		return 0, d.WriteErr
	}
	d.mu.Lock()
	d.packets = append(d.packets, string(p))
	d.mu.Unlock()
	d.Written <- string(p)
	return len(p), nil
}

// Inject queues a packet as if the host had routed it into the interface.
func (d *FakeDevice) Inject(pkt string) {
	d.inbound <- []byte(pkt)
}

func (d *FakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.inbound)
	}
	return nil
}

// Packets returns the packets written so far.
func (d *FakeDevice) Packets() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.packets...)
}
