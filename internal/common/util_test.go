package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	der := []byte{0x30, 0x82, 0x04, 0xa4, 0x02}
	WipeByteArray(der)
	assert.Equal(t, make([]byte, 5), der)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestRestorePlus(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "untouched", in: "abc", want: "abc"},
		{name: "decoded plus", in: "a b c", want: "a+b+c"},
		{name: "base64 id", in: "Zm9v YmFy/w==", want: "Zm9v+YmFy/w=="},
		{name: "envelope", in: "v1:q83v 7w==:AAEC Aw==", want: "v1:q83v+7w==:AAEC+Aw=="},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RestorePlus(tt.in))
		})
	}
}
