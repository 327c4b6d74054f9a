package transcribe

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV_Header(t *testing.T) {
	buf := encodeWAV([]float64{0, 0.5, -0.5}, 16000)
	require.Len(t, buf, 44+6)

	assert.Equal(t, "RIFF", string(buf[0:4]))
	assert.Equal(t, "WAVE", string(buf[8:12]))
	assert.Equal(t, "fmt ", string(buf[12:16]))
	assert.Equal(t, "data", string(buf[36:40]))

	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(buf[20:22])) // PCM
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(buf[22:24])) // mono
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(buf[24:28]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(buf[34:36]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(buf[40:44]))
}

func TestEncodeWAV_SampleConversion(t *testing.T) {
	buf := encodeWAV([]float64{0, 1, -1}, 16000)
	data := buf[44:]

	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(data[0:2])))
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(data[2:4])))
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(data[4:6])))
}

func TestEncodeWAV_ClipsOutOfRange(t *testing.T) {
	buf := encodeWAV([]float64{2.5, -3.0}, 16000)
	data := buf[44:]

	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(data[0:2])))
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(data[2:4])))
}
