package transform

import (
	"errors"
	"testing"
)

type hinted int

func (h hinted) PreferredChunkSize() int { return int(h) }

func (h hinted) Transform(in []byte, st State, end bool) (Result, error) {
	return Result{Consumed: len(in), State: st}, nil
}

func TestPreferredChunkSize(t *testing.T) {
	plain := UnitFunc(func(in []byte, st State, end bool) (Result, error) { return Result{}, nil })

	tests := []struct {
		name string
		u    Unit
		want int
	}{
		{"no hint", plain, DefaultChunkSize},
		{"hint", hinted(4), 4},
		{"zero hint falls back", hinted(0), DefaultChunkSize},
		{"negative hint falls back", hinted(-3), DefaultChunkSize},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PreferredChunkSize(tc.u); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestBlocksAndWindow(t *testing.T) {
	tests := []struct {
		size, block int
		end         bool
		want        int
	}{
		{8, 4, false, 8},
		{7, 4, false, 4},
		{3, 4, false, 0},
		{3, 4, true, 3},
		{8, 6, false, 6},
		{12, 6, false, 12},
		{5, 0, false, 5},
		{0, 4, true, 0},
	}
	for _, tc := range tests {
		if got := Blocks(tc.size, tc.block, tc.end); got != tc.want {
			t.Errorf("Blocks(%d, %d, %v) = %d, want %d", tc.size, tc.block, tc.end, got, tc.want)
		}
		if got := Window(tc.size, tc.block, tc.end); got != tc.want {
			t.Errorf("Window(%d, %d, %v) = %d, want %d", tc.size, tc.block, tc.end, got, tc.want)
		}
	}
}

func TestCapped_PreventsAppendIntoBuffer(t *testing.T) {
	buf := []byte("abcdef")
	view := Capped(buf, 3)
	view = append(view, 'X')
	if string(buf) != "abcdef" {
		t.Fatalf("append leaked into buffer: %q", buf)
	}
	if string(view) != "abcX" {
		t.Fatalf("unexpected view %q", view)
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("bad byte")
	var err error = Validation("base64-decode", "decode failed", cause)
	if !errors.Is(err, ErrValidation) {
		t.Fatal("validation error should match ErrValidation")
	}
	if !errors.Is(err, cause) {
		t.Fatal("validation error should unwrap to its cause")
	}
	if err.Error() != "base64-decode: decode failed: bad byte" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	err = CheckConsumed(5, 4)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("want protocol violation, got %v", err)
	}
	if CheckConsumed(4, 4) != nil || CheckConsumed(0, 0) != nil {
		t.Fatal("in-range consumption must pass")
	}
	if CheckConsumed(-1, 4) == nil {
		t.Fatal("negative consumption must fail")
	}
}
