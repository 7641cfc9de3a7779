// Package transport is the wire framing and connection adapter the network
// thread uses to carry rollback input packets, desync sync-checks, and
// coordinator/restart messages between peers. internal/rollback and
// internal/desync never import this package — they only produce and
// consume plain Go values (rollback.Packet, a (slot, frame, hash) tuple,
// coordinator/restart events); Transport's job is turning those into bytes
// on the wire and back.
package transport

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/pkg/errors"

	"fight-club-sim/internal/rollback"
)

// MessageType tags the payload carried by an Envelope so the receiver can
// decode it into the right Go type without a type switch on raw bytes.
type MessageType uint8

const (
	MessageInput MessageType = iota + 1
	MessageSyncCheck
	MessageDesyncNotify
	MessageRestartReady
	MessageStartCountdown
	MessageGameDataReload
)

// protocolVersion guards against decoding a message framed by an
// incompatible build; bump whenever Header or any payload type's wire shape
// changes.
const protocolVersion = 1

// Header precedes every payload on the wire: a version tag, the message
// type, a reserved byte for future flags, and the payload length so the
// reader knows exactly how many bytes to pull before attempting to decode.
type Header struct {
	Version  uint8
	Type     MessageType
	Reserved uint8
	Length   uint32
}

const headerSize = 7 // 1 + 1 + 1 + 4 bytes, fixed binary layout

// SyncCheck is one peer's hash announcement for a confirmed frame — the
// wire counterpart of internal/desync.Detector.RecordRemote's arguments.
type SyncCheck struct {
	Slot  int
	Frame int64
	Hash  uint64
}

// DesyncNotify announces that the sender has latched a desync, so peers can
// stop simulating and surface the condition instead of drifting further.
type DesyncNotify struct {
	Slot  int
	Frame int64
}

// RestartReady is one peer's readiness vote during the restart handshake.
type RestartReady struct {
	Slot  int
	Epoch int64
}

// StartCountdown announces the frame at which every ready peer should
// resume simulating after a restart handshake completes.
type StartCountdown struct {
	ResumeAtFrame int64
}

// GameDataReload signals a hot-reload of tunable content (scheduler step 1's
// no-op hook in production builds; exercised here so the message exists on
// the wire even though no production path triggers it yet).
type GameDataReload struct {
	Reason string
}

func init() {
	gob.Register(rollback.Packet{})
	gob.Register(SyncCheck{})
	gob.Register(DesyncNotify{})
	gob.Register(RestartReady{})
	gob.Register(StartCountdown{})
	gob.Register(GameDataReload{})
}

// WriteMessage frames one (type, payload) pair onto w: a fixed Header
// followed by the gob-encoded payload. payload must be one of the message
// structs above, or a rollback.Packet for MessageInput.
func WriteMessage(w io.Writer, msgType MessageType, payload any) error {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(&payload); err != nil {
		return errors.Wrap(err, "transport: encode payload")
	}
	hdr := Header{Version: protocolVersion, Type: msgType, Length: uint32(body.Len())}
	if err := writeHeader(w, hdr); err != nil {
		return errors.Wrap(err, "transport: write header")
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return errors.Wrap(err, "transport: write payload")
	}
	return nil
}

// ReadMessage reads one framed message from r, returning its type and the
// decoded payload as an any — callers type-assert to the concrete struct
// the MessageType implies.
func ReadMessage(r io.Reader) (MessageType, any, error) {
	hdr, err := readHeader(r)
	if err != nil {
		return 0, nil, errors.Wrap(err, "transport: read header")
	}
	if hdr.Version != protocolVersion {
		return 0, nil, errors.Errorf("transport: unsupported protocol version %d", hdr.Version)
	}
	body := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, errors.Wrap(err, "transport: read payload")
	}
	var payload any
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return 0, nil, errors.Wrap(err, "transport: decode payload")
	}
	return hdr.Type, payload, nil
}

func writeHeader(w io.Writer, h Header) error {
	var buf [headerSize]byte
	buf[0] = h.Version
	buf[1] = uint8(h.Type)
	buf[2] = h.Reserved
	binary.BigEndian.PutUint32(buf[3:], h.Length)
	_, err := w.Write(buf[:])
	return err
}

func readHeader(r io.Reader) (Header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}
	return Header{
		Version:  buf[0],
		Type:     MessageType(buf[1]),
		Reserved: buf[2],
		Length:   binary.BigEndian.Uint32(buf[3:]),
	}, nil
}
