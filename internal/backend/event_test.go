package backend

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEventConstructorsStampSource(t *testing.T) {
	id := uuid.New()
	events := []Event{
		NewBufferingUpdate(id, 40),
		NewCompletion(id),
		NewError(id, ErrorIO, 0),
		NewInfo(id, InfoNotSeekable, 0),
		NewPrepared(id),
		NewProgressUpdate(id, 1000, 5000),
		NewVideoSizeChanged(id, 640, 480),
	}
	for _, ev := range events {
		assert.Equal(t, id, ev.Source, ev.String())
	}
}

func TestEventString(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "buffering(40%)", NewBufferingUpdate(id, 40).String())
	assert.Equal(t, "info(801,0)", NewInfo(id, InfoNotSeekable, 0).String())
	assert.Equal(t, "progress(1000/5000)", NewProgressUpdate(id, 1000, 5000).String())
	assert.Equal(t, "video-size(640x480)", NewVideoSizeChanged(id, 640, 480).String())
	assert.Equal(t, "prepared", NewPrepared(id).String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "primary", Primary.String())
	assert.Equal(t, "fallback", Fallback.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestSinkFunc(t *testing.T) {
	var got []Event
	var s Sink = SinkFunc(func(ev Event) { got = append(got, ev) })
	s.Publish(NewCompletion(uuid.Nil))
	assert.Len(t, got, 1)
}
