package btconn

var (
	errInvalidProtocol = &Error{"invalid protocol string"}
	errInvalidInfoHash = &Error{"invalid info hash"}
	errOwnConnection   = &Error{"dropped own connection"}
)

// Error is returned when the remote side does not speak the BitTorrent protocol as expected.
type Error struct {
	message string
}

func (e *Error) Error() string {
	return e.message
}

// DialError is returned when the TCP connection to the peer cannot be established.
type DialError struct {
	Addr string
	Err  error
}

func (e *DialError) Error() string {
	return "cannot connect to " + e.Addr + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error { return e.Err }
