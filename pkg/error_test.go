package pkg

import (
	"errors"
	"testing"
)

func TestSentinelErrorsDistinct(t *testing.T) {
	errs := []error{
		ErrNoDevice,
		ErrLogicVersionTooOld,
		ErrSerialMismatch,
		ErrAllocation,
		ErrAlreadyRunning,
		ErrNotRunning,
		ErrClosed,
		ErrInvalidRequest,
		ErrBufferTooSmall,
		ErrSetupPacketTooShort,
	}

	for i, err1 := range errs {
		if err1 == nil {
			t.Errorf("error %d is nil", i)
			continue
		}
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d (%v) and %d (%v) are equal", i, err1, j, err2)
			}
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err     error
		wantMsg string
	}{
		{ErrNoDevice, "no matching device found"},
		{ErrLogicVersionTooOld, "device logic revision too old"},
		{ErrSerialMismatch, "device serial number does not match"},
		{ErrAlreadyRunning, "already streaming"},
		{ErrNotRunning, "not streaming"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("error.Error() = %v, want %v", got, tt.wantMsg)
			}
		})
	}
}
