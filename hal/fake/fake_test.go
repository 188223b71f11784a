package fake

import (
	"context"
	"testing"
	"time"

	"github.com/go-daq/davisusb/hal"
)

func TestHandleEventsSplitsOversizedFrame(t *testing.T) {
	d := New(1, 2, "SN1")
	d.PushFrame([]byte{1, 2, 3, 4, 5, 6})

	var first, second [4]byte
	t1 := &hal.Transfer{Buffer: first[:]}
	if err := d.Submit(t1); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.HandleEvents(context.Background(), time.Second); err != nil {
		t.Fatalf("HandleEvents: %v", err)
	}
	if t1.ActualLength != 4 {
		t.Fatalf("first ActualLength = %d, want 4", t1.ActualLength)
	}
	if first != [4]byte{1, 2, 3, 4} {
		t.Errorf("first buffer = %v, want [1 2 3 4]", first)
	}

	t2 := &hal.Transfer{Buffer: second[:]}
	if err := d.Submit(t2); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.HandleEvents(context.Background(), time.Second); err != nil {
		t.Fatalf("HandleEvents: %v", err)
	}
	if t2.ActualLength != 2 {
		t.Fatalf("second ActualLength = %d, want 2", t2.ActualLength)
	}
	if second[0] != 5 || second[1] != 6 {
		t.Errorf("second buffer = %v, want leading [5 6]", second[:2])
	}
}
