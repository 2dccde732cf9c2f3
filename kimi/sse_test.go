package kimi

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/muran-prog/kimi-go/core"
)

func collectUnits(t *testing.T, input string) ([]string, error) {
	t.Helper()
	dec := newSSEDecoder(strings.NewReader(input))
	var units []string
	for {
		unit, err := dec.next()
		if err == io.EOF {
			return units, nil
		}
		if err != nil {
			return units, err
		}
		units = append(units, string(unit))
	}
}

func TestSSEDecoderSingleUnit(t *testing.T) {
	units, err := collectUnits(t, "data: {\"event\":\"cmpl\"}\n\n")
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 1 || units[0] != `{"event":"cmpl"}` {
		t.Errorf("units = %q", units)
	}
}

func TestSSEDecoderMultipleUnits(t *testing.T) {
	input := "data: one\n\ndata: two\n\ndata: three\n\n"
	units, err := collectUnits(t, input)
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}
}

func TestSSEDecoderMultiLineData(t *testing.T) {
	input := "data: first\ndata: second\n\n"
	units, err := collectUnits(t, input)
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 1 || units[0] != "first\nsecond" {
		t.Errorf("units = %q, want one joined unit", units)
	}
}

func TestSSEDecoderSkipsCommentsAndForeignFields(t *testing.T) {
	input := ": keepalive\nevent: message\nid: 7\ndata: payload\n\n"
	units, err := collectUnits(t, input)
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 1 || units[0] != "payload" {
		t.Errorf("units = %q, want [payload]", units)
	}
}

func TestSSEDecoderCRLF(t *testing.T) {
	input := "data: payload\r\n\r\n"
	units, err := collectUnits(t, input)
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 1 || units[0] != "payload" {
		t.Errorf("units = %q, want [payload]", units)
	}
}

func TestSSEDecoderTruncatedUnitIsFatal(t *testing.T) {
	// Stream ends after a data line without the terminating blank line.
	_, err := collectUnits(t, "data: complete\n\ndata: dangling\n")
	if !errors.Is(err, core.ErrTruncated) {
		t.Fatalf("next() error = %v, want ErrTruncated", err)
	}
}

func TestSSEDecoderTruncatedMidLineIsFatal(t *testing.T) {
	// Stream ends mid-line, no trailing newline.
	_, err := collectUnits(t, "data: cut-of")
	if !errors.Is(err, core.ErrTruncated) {
		t.Fatalf("next() error = %v, want ErrTruncated", err)
	}
}

func TestSSEDecoderCleanEOF(t *testing.T) {
	units, err := collectUnits(t, "data: only\n\n")
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
}

func TestSSEDecoderTrailingBlankLines(t *testing.T) {
	units, err := collectUnits(t, "data: only\n\n\n\n")
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
}
