//go:build linux || darwin

package reactor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestReactor_RegisterFDAndReadWakesOnData(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	r := newTestReactor(t)
	fdr := int(pr.Fd())
	ctx, err := r.RegisterFD(fdr, false)
	require.NoError(t, err)
	defer r.UnregisterFD(ctx)

	var got []byte
	r.Spawn(func(FiberHandle) {
		buf := make([]byte, 16)
		n, err := r.Read(ctx, Infinite, func() (int, error) { return unix.Read(fdr, buf) })
		require.NoError(t, err)
		got = append([]byte{}, buf[:n]...)
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Sleep(2*time.Millisecond))
		_, werr := unix.Write(int(pw.Fd()), []byte("hello"))
		require.NoError(t, werr)
	})

	_, err = r.Start()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestReactor_WaitForEventTimesOutWithoutData(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	r := newTestReactor(t)
	fdr := int(pr.Fd())
	ctx, err := r.RegisterFD(fdr, false)
	require.NoError(t, err)
	defer r.UnregisterFD(ctx)

	r.Spawn(func(FiberHandle) {
		buf := make([]byte, 16)
		_, err := r.Read(ctx, After(3*time.Millisecond), func() (int, error) { return unix.Read(fdr, buf) })
		assert.ErrorIs(t, err, ErrTimeoutExpired)
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})

	_, err = r.Start()
	require.NoError(t, err)
}
