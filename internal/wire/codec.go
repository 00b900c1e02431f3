package wire

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ayusman/mudra/internal/hand"
)

// EncodeSnapshot encodes a snapshot as msgpack.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(&s)
}

// DecodeSnapshot decodes a msgpack snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: snapshot: %v", ErrMalformed, err)
	}
	return s, nil
}

// Presence message types.
const (
	TypeState = "state" // a peer's snapshot
	TypeLeave = "leave" // a peer left
	TypePeers = "peers" // the full set of present peers
)

// Presence is one message on the presence channel.
type Presence struct {
	Type     string    `json:"type" msgpack:"type"`
	Peer     string    `json:"peer,omitempty" msgpack:"peer,omitempty"`
	Peers    []string  `json:"peers,omitempty" msgpack:"peers,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`
}

func (p Presence) validate() error {
	switch p.Type {
	case TypeState:
		if p.Peer == "" || p.Snapshot == nil {
			return fmt.Errorf("%w: state message needs peer and snapshot", ErrMalformed)
		}
	case TypeLeave:
		if p.Peer == "" {
			return fmt.Errorf("%w: leave message needs peer", ErrMalformed)
		}
	case TypePeers:
	default:
		return fmt.Errorf("%w: unknown presence type %q", ErrMalformed, p.Type)
	}
	return nil
}

// EncodePresence encodes a presence message as msgpack for binary frames.
func EncodePresence(p Presence) ([]byte, error) {
	return msgpack.Marshal(&p)
}

// DecodePresence decodes a presence message. Binary frames carry msgpack,
// text frames JSON.
func DecodePresence(data []byte, binary bool) (Presence, error) {
	var p Presence
	var err error
	if binary {
		err = msgpack.Unmarshal(data, &p)
	} else {
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return Presence{}, fmt.Errorf("%w: presence: %v", ErrMalformed, err)
	}
	if err := p.validate(); err != nil {
		return Presence{}, err
	}
	return p, nil
}

// Phone request types.
const (
	PhoneHandTracking = "handTracking"
	PhoneChangeModel  = "changeModel"
)

// PhoneRequest is a message from the phone controller.
type PhoneRequest struct {
	Type      string         `json:"type"`
	Hand      string         `json:"hand,omitempty"`
	Pos       *Vec3          `json:"pos,omitempty"`
	Rot       *Quat          `json:"rot,omitempty"`
	Anim      string         `json:"anim,omitempty"`
	Landmarks hand.Landmarks `json:"landmarks,omitempty"`
	Model     string         `json:"model,omitempty"`
}

// Side returns the hand a tracking request addresses.
func (r PhoneRequest) Side() (hand.Side, error) {
	return hand.ParseSide(r.Hand)
}

// DecodePhone decodes and validates a JSON phone request.
func DecodePhone(data []byte) (PhoneRequest, error) {
	var r PhoneRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return PhoneRequest{}, fmt.Errorf("%w: phone: %v", ErrMalformed, err)
	}

	switch r.Type {
	case PhoneHandTracking:
		if _, err := r.Side(); err != nil {
			return PhoneRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	case PhoneChangeModel:
		if r.Model == "" {
			return PhoneRequest{}, fmt.Errorf("%w: changeModel needs a model", ErrMalformed)
		}
	default:
		return PhoneRequest{}, fmt.Errorf("%w: unknown phone request %q", ErrMalformed, r.Type)
	}
	return r, nil
}
