package modem_test

import (
	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/esptun/modem"
)

type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Command expects cmd to be written and answers it with resp.
func (b *MockSequenceBuilder) Command(cmd, resp string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(cmd)).Return(len(cmd), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, resp), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	// The modem still echoes the command that turns echo off.
	return b.Command("ATE0\r\n", "ATE0\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) StationMode() *MockSequenceBuilder {
	return b.Command("AT+CWMODE_CUR=1\r\n", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SingleConnection() *MockSequenceBuilder {
	return b.Command("AT+CIPMUX=0\r\n", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) RaiseBaudRate() *MockSequenceBuilder {
	b.Command("AT+UART_CUR=460800,8,1,0,0\r\n", "\r\nOK\r\n")
	b.calls = append(b.calls, b.transport.EXPECT().SetBaudRate(460800).Return(nil))
	return b
}

func (b *MockSequenceBuilder) LinkTest() *MockSequenceBuilder {
	return b.Command("AT\r\n", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) JoinAP() *MockSequenceBuilder {
	return b.Command("AT+CWJAP_CUR=\"home\\,net\",\"p\\\"w\"\r\n",
		"WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) QueryIP() *MockSequenceBuilder {
	return b.Command("AT+CIPSTA_CUR?\r\n", "+CIPSTA_CUR:ip:\"192.168.4.2\"\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) StartUDP() *MockSequenceBuilder {
	return b.Command("AT+CIPSTART=\"UDP\",\"10.0.0.1\",5000,5000\r\n", "CONNECT\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// initMockCalls is the complete successful handshake for testConfig.
func initMockCalls(transport *modem.MockTransport) []any {
	return NewMockSequence(transport).
		EchoOff().
		StationMode().
		SingleConnection().
		RaiseBaudRate().
		LinkTest().
		JoinAP().
		QueryIP().
		StartUDP().
		Build()
}

// testConfig builds the session configuration the mock sequences expect.
func testConfig(dialer modem.Dialer, device modem.NetDevice) (modem.Config, error) {
	return modem.NewConfigBuilder().
		WithDialer(dialer).
		WithDevice(device).
		WithAccessPoint("home,net", `p"w`).
		WithRemote("10.0.0.1", 5000).
		Build()
}
