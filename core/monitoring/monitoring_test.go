package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	errs    []error
	tags    []map[string]string
	panics  []any
	flushes int
}

func (f *fakeMonitor) CaptureException(err error, tags map[string]string) {
	f.errs = append(f.errs, err)
	f.tags = append(f.tags, tags)
}
func (f *fakeMonitor) CapturePanic(v any)  { f.panics = append(f.panics, v) }
func (f *fakeMonitor) Flush(time.Duration) { f.flushes++ }

func install(t *testing.T) *fakeMonitor {
	t.Helper()
	f := &fakeMonitor{}
	Init(f)
	t.Cleanup(func() { Init(nil) })
	return f
}

func TestCaptureException(t *testing.T) {
	f := install(t)
	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"component": "runner"})
	require.Len(t, f.errs, 1)
	assert.EqualError(t, f.errs[0], "boom")
	assert.Equal(t, "runner", f.tags[0]["component"])
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	f := install(t)
	assert.PanicsWithValue(t, "kaboom", func() {
		defer Recover()
		panic("kaboom")
	})
	assert.Equal(t, []any{"kaboom"}, f.panics)
	assert.Equal(t, 1, f.flushes)
}

func TestRecoverWithoutPanic(t *testing.T) {
	f := install(t)
	func() {
		defer Recover()
	}()
	assert.Empty(t, f.panics)
	assert.Zero(t, f.flushes)
}

func TestInitNilRestoresNop(t *testing.T) {
	Init(nil)
	assert.Equal(t, NopMonitor{}, get())
	Flush(time.Millisecond)
}
