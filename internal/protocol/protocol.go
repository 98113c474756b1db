// Package protocol defines the messages exchanged with the dependency
// analysis engine and their JSON encoding.
//
// Every frame on the wire is an Envelope. The first outbound frame of a
// channel carries the comm target name; all frames of a channel share one
// comm id. The message itself sits under "data" and is discriminated by its
// "type" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates messages.
type Kind string

const (
	KindEstablish           Kind = "establish"
	KindComputeExecSchedule Kind = "compute_exec_schedule"
	KindChangeActiveCell    Kind = "change_active_cell"
)

// DefaultCommTarget is the comm target the analysis engine registers.
const DefaultCommTarget = "ipyflow"

var ErrUnknownKind = errors.New("unknown message type")

// Outbound is a message sent to the analysis engine.
type Outbound interface {
	Kind() Kind
}

// ComputeExecSchedule asks the engine for a fresh classification.
// ExecutedCellID is empty on the initial request after connecting.
type ComputeExecSchedule struct {
	ExecutedCellID  string
	ContentByCellID map[string]string
}

func (ComputeExecSchedule) Kind() Kind { return KindComputeExecSchedule }

func (m ComputeExecSchedule) MarshalJSON() ([]byte, error) {
	content := m.ContentByCellID
	if content == nil {
		content = map[string]string{}
	}
	return json.Marshal(struct {
		Type            Kind              `json:"type"`
		ExecutedCellID  string            `json:"executed_cell_id,omitempty"`
		ContentByCellID map[string]string `json:"content_by_cell_id"`
	}{m.Kind(), m.ExecutedCellID, content})
}

// ChangeActiveCell tells the engine which cell is selected. OrderIdx is nil
// when the cell could not be found in the live sequence.
type ChangeActiveCell struct {
	ActiveCellID string
	OrderIdx     *int
}

func (ChangeActiveCell) Kind() Kind { return KindChangeActiveCell }

func (m ChangeActiveCell) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type               Kind   `json:"type"`
		ActiveCellID       string `json:"active_cell_id"`
		ActiveCellOrderIdx *int   `json:"active_cell_order_idx"`
	}{m.Kind(), m.ActiveCellID, m.OrderIdx})
}

// Inbound is a message received from the analysis engine. Only the fields of
// the message's Type are populated.
type Inbound struct {
	Type            Kind                `json:"type"`
	WaitingCells    []string            `json:"waiting_cells,omitempty"`
	ReadyCells      []string            `json:"ready_cells,omitempty"`
	WaiterLinks     map[string][]string `json:"waiter_links,omitempty"`
	ReadyMakerLinks map[string][]string `json:"ready_maker_links,omitempty"`
}

// DecodeInbound parses a message. Messages with an unrecognised type return
// the decoded message together with an error wrapping ErrUnknownKind.
func DecodeInbound(data []byte) (*Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode inbound message: %w", err)
	}
	switch msg.Type {
	case KindEstablish, KindComputeExecSchedule:
		return &msg, nil
	default:
		return &msg, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Type)
	}
}

// Envelope is the comm frame wrapping every message.
type Envelope struct {
	CommID     string          `json:"comm_id"`
	TargetName string          `json:"target_name,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Comm stamps outbound messages with a comm id and opens the comm on the
// first frame. It is not safe for concurrent use; transports serialize
// writes anyway.
type Comm struct {
	ID     string
	Target string
	opened bool
}

// NewComm returns a comm with a random id.
func NewComm(target string) *Comm {
	if target == "" {
		target = DefaultCommTarget
	}
	return &Comm{ID: uuid.NewString(), Target: target}
}

// Wrap encodes msg into an envelope.
func (c *Comm) Wrap(msg Outbound) (*Envelope, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Kind(), err)
	}
	env := &Envelope{CommID: c.ID, Data: data}
	if !c.opened {
		env.TargetName = c.Target
		c.opened = true
	}
	return env, nil
}

// Unwrap decodes the message carried by an envelope frame.
func Unwrap(frame []byte) (*Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("envelope %q carries no data", env.CommID)
	}
	return DecodeInbound(env.Data)
}
