package session

import "errors"

// State is the lifecycle position of a Controller.
type State int

const (
	StateDisconnected State = iota
	StateEstablishing
	StateEstablished
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateEstablishing:
		return "establishing"
	case StateEstablished:
		return "established"
	case StateTornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

var (
	// ErrTornDown is returned when a torn-down controller is asked to connect.
	ErrTornDown = errors.New("session is torn down")
	// ErrAlreadyConnected is returned by a second Connect.
	ErrAlreadyConnected = errors.New("session is already connected")
)
