package synth

import (
	"testing"
	"time"

	"github.com/resonix-audio/resonix/internal/envelope"
	"github.com/resonix-audio/resonix/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBuffer(samples []float32) *units.Buffer {
	return units.NewBuffer(samples, DefaultSampleRate)
}

func Test_DefaultNumChannels(t *testing.T) {
	s := New(1)
	assert.EqualValues(t, DefaultNumChannels, s.NumChannels())
}

func Test_SetNumChannels_growsAndShrinksGrainPopulation(t *testing.T) {
	buf := make([]float32, 1024)
	s := New(1)
	s.SetBuffer(makeBuffer(buf))
	s.SetGrainInitializationDelay(time.Hour) // clamped to MaxGrainInitDelay: only frame 0 initializes a grain

	s.SetNumChannels(10)
	s.NextFrame()
	assert.EqualValues(t, 10, s.totalNumGrains())

	s.SetNumChannels(4)
	frame := s.NextFrame()
	assert.Len(t, frame, 4)
	for uid := range s.uninitialized {
		assert.Less(t, uid, uint32(4))
	}
	for uid := range s.fresh {
		assert.Less(t, uid, uint32(4))
	}
}

func Test_GrainDeterminism_channelsAdvanceBySample(t *testing.T) {
	buf := make([]float32, 5001)
	for i := range buf {
		buf[i] = float32(i)
	}
	s := New(42)
	s.SetBuffer(makeBuffer(buf))
	s.SetEnvelope(envelope.NewAll1())
	s.SetGrainInitializationDelay(0)
	s.SetGrainLen(20 * time.Millisecond)

	s.NextFrame() // grain 1 initialized
	frame1 := s.NextFrame()
	frame2 := s.NextFrame()

	assert.InDelta(t, frame1[0]+1.0, frame2[0], 1e-4)
	assert.InDelta(t, frame1[1]+1.0, frame2[1], 1e-4)
}

func Test_NewGrainsComeFromCenterOfChannels(t *testing.T) {
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = 1.0
	}
	s := New(7)
	s.SetBuffer(makeBuffer(buf))
	s.SetEnvelope(envelope.NewAll1())
	s.SetGrainInitializationDelay(0)
	s.SetNumChannels(250)

	frame := s.NextFrame()

	assert.Equal(t, float32(0), frame[0])
	assert.Equal(t, float32(0), frame[len(frame)-1])
	assert.Equal(t, float32(1), frame[len(frame)/2])
}

func Test_EmptySelection_isAllZeros(t *testing.T) {
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = 1.0
	}
	s := New(3)
	s.SetBuffer(makeBuffer(buf))
	s.SetEnvelope(envelope.NewAll1())
	s.SetGrainInitializationDelay(0)
	s.SetSelectionStart(0.5)
	s.SetSelectionEnd(0.5)

	for i := 0; i < 200; i++ {
		frame := s.NextFrame()
		for _, v := range frame {
			assert.Equal(t, float32(0), v)
		}
	}
}

func Test_SelectionChangeRecovery(t *testing.T) {
	buf := make([]float32, 2048)
	for i := 1024; i < 2048; i++ {
		buf[i] = 1.0
	}
	s := New(11)
	s.SetBuffer(makeBuffer(buf))
	s.SetEnvelope(envelope.NewAll1())
	s.SetGrainInitializationDelay(0)
	s.SetSelectionStart(0)
	s.SetSelectionEnd(0.4)

	frame := s.NextFrame()
	assert.Equal(t, []float32{0, 0}, frame)

	s.SetSelectionStart(0.6)
	s.SetSelectionEnd(1.0)

	for i := uint32(0); i < uint32(DefaultSampleRate); i++ {
		s.NextFrame()
	}

	frame = s.NextFrame()
	assert.Equal(t, []float32{1.0, 1.0}, frame)
}

func Test_SetSelectionStart_pullsEndUp(t *testing.T) {
	s := New(1)
	s.SetSelectionStart(0.2)
	s.SetSelectionEnd(0.1)
	require.GreaterOrEqual(t, float64(s.selectionEnd), float64(s.selectionStart))

	s.SetSelectionStart(0.9)
	assert.Equal(t, s.selectionStart, s.selectionEnd)
}

func Test_TotalGrainCountAlwaysEqualsChannels(t *testing.T) {
	buf := make([]float32, 1024)
	s := New(5)
	s.SetBuffer(makeBuffer(buf))

	for _, c := range []uint32{2, 50, 7, 300, 1} {
		s.SetNumChannels(c)
		s.NextFrame()
		assert.EqualValues(t, c, s.totalNumGrains())
	}
}
