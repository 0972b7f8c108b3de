package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"player-control/internal/player"
)

type fakeController struct {
	mu       sync.Mutex
	status   player.Status
	dispatch []string
	err      error
}

func (f *fakeController) Status() player.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) Do(_ context.Context, fn func() error) error {
	return fn()
}

func (f *fakeController) Dispatch(name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatch = append(f.dispatch, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return f.err
}

func TestPromptExec(t *testing.T) {
	ctrl := &fakeController{}
	var out bytes.Buffer
	p := NewPrompt(ctrl, nil, &out)
	ctx := context.Background()

	assert.False(t, p.Exec(ctx, "  "))
	assert.False(t, p.Exec(ctx, "Next"))
	assert.False(t, p.Exec(ctx, "seek 1:30"))
	assert.Equal(t, []string{"next", "seek 1:30"}, ctrl.dispatch)

	assert.True(t, p.Exec(ctx, "quit"))
	assert.True(t, p.Exec(ctx, "exit"))
	assert.Len(t, ctrl.dispatch, 2)
}

func TestPromptPrintsErrors(t *testing.T) {
	ctrl := &fakeController{err: player.ErrNotLoaded}
	var out bytes.Buffer
	p := NewPrompt(ctrl, nil, &out)

	assert.False(t, p.Exec(context.Background(), "toggle"))
	assert.Contains(t, out.String(), player.ErrNotLoaded.Error())
}

func TestPromptHelpAndStatus(t *testing.T) {
	ctrl := &fakeController{status: player.Status{
		State:       player.Started,
		URI:         "/media/a.mp4",
		Index:       1,
		Count:       3,
		Backend:     "primary",
		Aspect:      "fill",
		PositionMs:  61000,
		DurationMs:  120000,
		LastOutcome: `completed "/media/z.mp4"`,
	}}
	var out bytes.Buffer
	p := NewPrompt(ctrl, nil, &out)

	p.Exec(context.Background(), "help")
	assert.Contains(t, out.String(), "seek <")
	assert.Contains(t, out.String(), "quit")

	out.Reset()
	p.Exec(context.Background(), "status")
	s := out.String()
	assert.Contains(t, s, "started")
	assert.Contains(t, s, "2/3")
	assert.Contains(t, s, "00:01:01 / 00:02:00")
	assert.Contains(t, s, "/media/z.mp4")
	assert.Empty(t, ctrl.dispatch)
}

func TestCompletionsCoverIntents(t *testing.T) {
	var names []string
	for _, c := range completions() {
		names = append(names, strings.TrimSpace(string(c.GetName())))
	}
	assert.Contains(t, names, "next")
	assert.Contains(t, names, "brightness")
	assert.Contains(t, names, "status")
}
