package fusion

import "fmt"

// Frame names the node the hand groups hang from.
type Frame int

const (
	// FrameHead attaches the groups to the viewer's head (camera) so
	// camera and phone offsets are view-relative.
	FrameHead Frame = iota
	// FrameBody attaches the groups to the body root while VR presents,
	// because controller poses are reported relative to it.
	FrameBody
)

func (f Frame) String() string {
	switch f {
	case FrameHead:
		return "head"
	case FrameBody:
		return "body"
	default:
		return fmt.Sprintf("frame(%d)", int(f))
	}
}

// transition validates a parent frame change. Only head -> body on session
// start and body -> head on session end are allowed.
func transition(from, to Frame) error {
	switch {
	case from == FrameHead && to == FrameBody:
		return nil
	case from == FrameBody && to == FrameHead:
		return nil
	default:
		return fmt.Errorf("invalid frame transition %s -> %s", from, to)
	}
}
