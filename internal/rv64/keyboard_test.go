package rv64

import "testing"

func TestKeyboardDequeuesOnePerRead(t *testing.T) {
	k := NewKeyboard()
	k.Push(0x41)
	k.Push(0x42)

	v, err := k.Read(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x41 {
		t.Fatalf("first read = 0x%x, want 0x41", v)
	}

	v, err = k.Read(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x42 {
		t.Fatalf("second read = 0x%x, want 0x42", v)
	}
}

func TestKeyboardEmptyReadIsZero(t *testing.T) {
	k := NewKeyboard()
	v, err := k.Read(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Fatalf("empty read = 0x%x, want 0", v)
	}
}

func TestKeyboardDropsOldestWhenFull(t *testing.T) {
	k := NewKeyboard()
	for i := 0; i < keyboardQueueCap+5; i++ {
		k.Push(uint32(i))
	}

	v, err := k.Read(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Fatalf("oldest surviving code = %d, want 5 (first 5 dropped)", v)
	}
}
