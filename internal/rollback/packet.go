package rollback

import (
	"bytes"
	"encoding/gob"
)

// packetRedundancy is how many contiguous older frames ride along with the
// current frame in every outgoing packet.
const packetRedundancy = 3

// FrameInput is one (frame, input) pair carried inside a Packet.
type FrameInput struct {
	Frame int64
	Input Input
}

// Packet is one unreliable input packet: the sender's current frame plus up
// to packetRedundancy immediately preceding frames, for loss resilience
//. Frames is ordered newest-first.
type Packet struct {
	SenderSlot int
	Frames     []FrameInput
}

// packetHistory is the small per-slot source the sender draws redundant
// frames from — a local log of the slot's own inputs, separate from
// MultiPlayerInputBuffer so the sender never needs to read back through a
// ring shared with other producers.
type packetHistory struct {
	bySlotFrame map[int64]Input
}

func newPacketHistory() *packetHistory {
	return &packetHistory{bySlotFrame: make(map[int64]Input)}
}

func (h *packetHistory) record(frame int64, in Input) {
	h.bySlotFrame[frame] = in
}

// BuildPacket assembles the outgoing packet for senderSlot at currentFrame:
// currentFrame's input plus up to packetRedundancy immediately preceding
// frames, stopping at the first gap in the sender's own history.
func (h *packetHistory) BuildPacket(senderSlot int, currentFrame int64, currentInput Input) Packet {
	h.record(currentFrame, currentInput)
	frames := []FrameInput{{Frame: currentFrame, Input: currentInput}}
	for i := 1; i <= packetRedundancy; i++ {
		f := currentFrame - int64(i)
		in, ok := h.bySlotFrame[f]
		if !ok {
			break
		}
		frames = append(frames, FrameInput{Frame: f, Input: in})
	}
	return Packet{SenderSlot: senderSlot, Frames: frames}
}

// EncodePacket serializes p for unreliable transmission.
func EncodePacket(p Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePacket deserializes a received packet.
func DecodePacket(data []byte) (Packet, error) {
	var p Packet
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return Packet{}, err
	}
	return p, nil
}

// Apply enqueues every frame in p into buf, deduplicating frames the buffer
// already has. Returns
// the first conflicting-input error encountered, if any, without aborting
// the remaining frames.
func (p Packet) Apply(buf *MultiPlayerInputBuffer) error {
	var firstErr error
	for _, f := range p.Frames {
		if buf.HasInput(f.Frame, p.SenderSlot) {
			continue
		}
		if err := buf.EnqueueInput(f.Frame, p.SenderSlot, f.Input); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
