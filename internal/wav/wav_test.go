package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/resonix-audio/resonix/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteFile_headerFields(t *testing.T) {
	var buf bytes.Buffer
	samples := []float32{0, 0.5, -0.5, 1, -1}
	require.NoError(t, WriteFile(&buf, samples, 44100, 1))

	data := buf.Bytes()
	require.GreaterOrEqual(t, len(data), 44+len(samples)*2)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22])) // PCM
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24])) // channels
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36])) // bits/sample
	assert.Equal(t, "data", string(data[36:40]))
}

func Test_floatToPCM16_clampsOutOfRange(t *testing.T) {
	assert.Equal(t, int16(32767), floatToPCM16(2.0))
	assert.Equal(t, int16(-32768), floatToPCM16(-2.0))
	assert.Equal(t, int16(0), floatToPCM16(0))
}

func Test_WriteFile_multiChannelByteRate(t *testing.T) {
	var buf bytes.Buffer
	samples := []float32{0, 0, 0, 0}
	require.NoError(t, WriteFile(&buf, samples, units.SampleRate(22050), units.NumChannels(2)))

	data := buf.Bytes()
	byteRate := binary.LittleEndian.Uint32(data[28:32])
	assert.Equal(t, uint32(22050*2*2), byteRate)
	blockAlign := binary.LittleEndian.Uint16(data[32:34])
	assert.Equal(t, uint16(4), blockAlign)
}
