package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/light-controller/internal/pinmap"
)

func TestFakeRecordsOperationsInOrder(t *testing.T) {
	f := NewFake()

	if err := f.Configure(pinmap.Output0, Output, PullDown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.Write(pinmap.Output0, High)
	f.Toggle(pinmap.Output0)
	got := f.Read(pinmap.Output0)

	if got != Low {
		t.Errorf("read after toggle: got %s, want LOW", got)
	}

	ops := f.Ops()
	want := []OpKind{OpConfigure, OpWrite, OpToggle, OpRead}
	if len(ops) != len(want) {
		t.Fatalf("expected %d ops, got %d", len(want), len(ops))
	}
	for i, k := range want {
		if ops[i].Kind != k {
			t.Errorf("op %d: got %s, want %s", i, ops[i].Kind, k)
		}
		if ops[i].Pin != pinmap.Output0 {
			t.Errorf("op %d: got pin %s", i, ops[i].Pin)
		}
	}
	if ops[2].Level != Low {
		t.Errorf("toggle should record resulting level LOW, got %s", ops[2].Level)
	}
}

func TestFakeOnRead(t *testing.T) {
	f := NewFake()
	f.OnRead = func(pin pinmap.PinID, levels map[pinmap.PinID]Level) Level {
		return levels[pinmap.Input0S0]
	}

	if f.Read(pinmap.Input0Data) != Low {
		t.Error("expected LOW with selector low")
	}
	f.Write(pinmap.Input0S0, High)
	if f.Read(pinmap.Input0Data) != High {
		t.Error("expected HIGH with selector high")
	}
}

func TestFakeConfigureError(t *testing.T) {
	f := NewFake()
	f.ConfigureError = ErrFakeConfigure

	err := f.Configure(pinmap.OnBoardLED, Output, PullUp)
	if !errors.Is(err, ErrFakeConfigure) {
		t.Errorf("unexpected error: %v", err)
	}
	if _, ok := f.ModeOf(pinmap.OnBoardLED); ok {
		t.Error("failed configure should not record a mode")
	}
}

func TestFakeOpsOfAndClear(t *testing.T) {
	f := NewFake()
	f.Write(pinmap.Output1, High)
	f.Read(pinmap.Input0Data)
	f.Toggle(pinmap.Output1)

	if n := len(f.OpsOf(OpWrite, OpToggle)); n != 2 {
		t.Errorf("expected 2 write/toggle ops, got %d", n)
	}

	f.ClearOps()
	if len(f.Ops()) != 0 {
		t.Error("expected no ops after ClearOps")
	}
	if f.Level(pinmap.Output1) != Low {
		t.Error("ClearOps should keep levels")
	}
}

func TestFakeClose(t *testing.T) {
	f := NewFake()
	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestLevelBit(t *testing.T) {
	if High.Bit() != 1 || Low.Bit() != 0 {
		t.Error("unexpected Bit values")
	}
}
