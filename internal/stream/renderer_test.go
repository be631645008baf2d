package stream

import (
	"encoding/binary"
	"testing"
)

func pcmBytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestScalePCM(t *testing.T) {
	in := pcmBytes(1000, -1000, 32767, -32768)
	shorts := make([]int16, 4)

	scalePCM(in, shorts, 100)
	want := []int16{1000, -1000, 32767, -32768}
	for i := range want {
		if shorts[i] != want[i] {
			t.Errorf("100%%: sample %d = %d, want %d", i, shorts[i], want[i])
		}
	}

	scalePCM(in, shorts, 50)
	want = []int16{500, -500, 16383, -16384}
	for i := range want {
		if shorts[i] != want[i] {
			t.Errorf("50%%: sample %d = %d, want %d", i, shorts[i], want[i])
		}
	}

	scalePCM(in, shorts, 0)
	for i := range shorts {
		if shorts[i] != 0 {
			t.Errorf("0%%: sample %d = %d, want silence", i, shorts[i])
		}
	}
}

func TestScalePCMClamps(t *testing.T) {
	in := pcmBytes(30000, -30000)
	shorts := make([]int16, 2)

	scalePCM(in, shorts, 150)
	if shorts[0] != 32767 {
		t.Errorf("positive overflow = %d, want clamp to 32767", shorts[0])
	}
	if shorts[1] != -32768 {
		t.Errorf("negative overflow = %d, want clamp to -32768", shorts[1])
	}
}
