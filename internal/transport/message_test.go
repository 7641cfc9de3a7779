package transport

import (
	"bytes"
	"testing"

	"fight-club-sim/internal/rollback"
)

func TestWriteReadMessageRoundTripsSyncCheck(t *testing.T) {
	var buf bytes.Buffer
	want := SyncCheck{Slot: 2, Frame: 99, Hash: 0xDEADBEEF}

	if err := WriteMessage(&buf, MessageSyncCheck, want); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	msgType, payload, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msgType != MessageSyncCheck {
		t.Fatalf("msgType = %v, want MessageSyncCheck", msgType)
	}
	got, ok := payload.(SyncCheck)
	if !ok || got != want {
		t.Fatalf("payload = %+v (ok=%v), want %+v", payload, ok, want)
	}
}

func TestWriteReadMessageRoundTripsRollbackPacket(t *testing.T) {
	var buf bytes.Buffer
	want := rollback.Packet{SenderSlot: 1, Frames: []rollback.FrameInput{
		{Frame: 5, Input: rollback.Input{}},
	}}

	if err := WriteMessage(&buf, MessageInput, want); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	msgType, payload, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msgType != MessageInput {
		t.Fatalf("msgType = %v, want MessageInput", msgType)
	}
	got, ok := payload.(rollback.Packet)
	if !ok {
		t.Fatalf("payload type = %T, want rollback.Packet", payload)
	}
	if got.SenderSlot != want.SenderSlot || len(got.Frames) != 1 || got.Frames[0].Frame != 5 {
		t.Fatalf("round-tripped packet mismatch: %+v", got)
	}
}

func TestWriteReadMessageSequential(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MessageDesyncNotify, DesyncNotify{Slot: 0, Frame: 10}); err != nil {
		t.Fatalf("write 1: %v", err)
	}
	if err := WriteMessage(&buf, MessageRestartReady, RestartReady{Slot: 0, Epoch: 3}); err != nil {
		t.Fatalf("write 2: %v", err)
	}

	gotType1, payload1, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("read 1: %v", err)
	}
	if gotType1 != MessageDesyncNotify || payload1.(DesyncNotify).Frame != 10 {
		t.Fatalf("first message wrong: type=%v payload=%+v", gotType1, payload1)
	}

	gotType2, payload2, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("read 2: %v", err)
	}
	if gotType2 != MessageRestartReady || payload2.(RestartReady).Epoch != 3 {
		t.Fatalf("second message wrong: type=%v payload=%+v", gotType2, payload2)
	}
}

func TestReadMessageRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MessageStartCountdown, StartCountdown{ResumeAtFrame: 42}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	raw := buf.Bytes()
	raw[0] = protocolVersion + 1 // corrupt the version byte in place

	if _, _, err := ReadMessage(bytes.NewReader(raw)); err == nil {
		t.Fatalf("expected an error for an unsupported protocol version")
	}
}

func TestReadMessageErrorsOnTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MessageGameDataReload, GameDataReload{Reason: "hot reload"}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	truncated := buf.Bytes()[:headerSize+2] // header intact, payload cut short

	if _, _, err := ReadMessage(bytes.NewReader(truncated)); err == nil {
		t.Fatalf("expected an error reading a truncated payload")
	}
}
