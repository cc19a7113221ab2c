package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "

	// IPDPrefix announces an inbound packet frame:
	// +IPD,<len>[,<remote ip>,<remote port>]:<payload>
	IPDPrefix = "+IPD,"

	// Final response codes
	OK               = "OK"
	SendOK           = "SEND OK"
	FAIL             = "FAIL"
	SendFail         = "SEND FAIL"
	ERROR            = "ERROR"
	AlreadyConnected = "ALREADY CONNECTED"

	// Informational responses
	StationIP  = "+CIPSTA_CUR"
	WifiStatus = "WIFI "

	// URCs (Unsolicited Result Codes)
	UrcReady  = "ready"
	UrcClosed = "CLOSED"
	UrcBusy   = "busy "
)

// Commands without arguments
const (
	CmdAt               = "AT"
	CmdEchoOff          = "ATE0"
	CmdStationMode      = "AT+CWMODE_CUR=1"
	CmdSingleConnection = "AT+CIPMUX=0"
	CmdQueryIP          = "AT+CIPSTA_CUR?"
	CmdSetUART          = "AT+UART_CUR="
	CmdJoinAP           = "AT+CWJAP_CUR="
	CmdStart            = "AT+CIPSTART="
	CmdSend             = "AT+CIPSEND="
)

type ResponseType int

const (
	TypeData    ResponseType = iota // Intermediate command output, echoes, blank lines
	TypeSuccess                     // OK, SEND OK
	TypeFailure                     // FAIL, SEND FAIL, ERROR, ALREADY CONNECTED
	TypeInfo                        // Station IP report, Wi-Fi status
	TypeURC                         // Asynchronous notifications
)

func (t ResponseType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeSuccess:
		return "success"
	case TypeFailure:
		return "failure"
	case TypeInfo:
		return "info"
	case TypeURC:
		return "urc"
	default:
		return "unknown"
	}
}

// Terminal reports whether a response of this type ends a command.
func (t ResponseType) Terminal() bool {
	return t == TypeSuccess || t == TypeFailure
}
