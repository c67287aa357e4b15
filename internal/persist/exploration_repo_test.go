package persist

import (
	"context"
	"errors"
	"testing"
)

func TestPackMask(t *testing.T) {
	mask := make([]bool, 21)
	for _, i := range []int{0, 7, 8, 20} {
		mask[i] = true
	}
	packed, n := PackMask(mask)
	if len(packed) != 3 {
		t.Fatalf("packed %d bytes, want 3", len(packed))
	}
	if n != 4 {
		t.Fatalf("explored = %d, want 4", n)
	}
	if packed[0] != 0x81 || packed[1] != 0x01 || packed[2] != 0x10 {
		t.Fatalf("packed = %x", packed)
	}

	got, err := UnpackMask(packed, len(mask))
	if err != nil {
		t.Fatal(err)
	}
	for i := range mask {
		if got[i] != mask[i] {
			t.Fatalf("tile %d = %v, want %v", i, got[i], mask[i])
		}
	}
}

func TestUnpackMaskRejectsWrongLength(t *testing.T) {
	if _, err := UnpackMask(make([]byte, 2), 21); !errors.Is(err, ErrMaskSize) {
		t.Fatalf("err = %v, want ErrMaskSize", err)
	}
	if got, err := UnpackMask(nil, 0); err != nil || len(got) != 0 {
		t.Fatalf("empty mask: %v %v", got, err)
	}
}

func TestSaveRejectsWrongSizeBeforeTouchingDB(t *testing.T) {
	r := NewExplorationRepo(nil)
	if err := r.Save(context.Background(), 1, 4, 4, make([]bool, 3)); !errors.Is(err, ErrMaskSize) {
		t.Fatalf("err = %v, want ErrMaskSize", err)
	}
}
