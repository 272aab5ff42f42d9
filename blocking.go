//go:build !windows && !js

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"
)

// blockingCall is the generic wrapper around a non-blocking syscall, per
// spec.md §4.5: issue op; on EAGAIN/EWOULDBLOCK, park on dir via
// WaitForEvent and retry; any other error (including a cancellation
// surfaced by WaitForEvent) is returned as-is.
func blockingCall[T any](r *Reactor, ctx *IOContext, dir Direction, timeout Timeout, op func() (T, error)) (T, error) {
	for {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EWOULDBLOCK) {
			return v, err
		}
		if werr := r.WaitForEvent(ctx, dir, timeout); werr != nil {
			var zero T
			return zero, werr
		}
	}
}

// Read is the reactor-aware specialization of blockingCall for a
// non-blocking read(2)-like syscall.
func (r *Reactor) Read(ctx *IOContext, timeout Timeout, fn func() (int, error)) (int, error) {
	return blockingCall(r, ctx, DirRead, timeout, fn)
}

// Write is the reactor-aware specialization of blockingCall for a
// non-blocking write(2)-like syscall.
func (r *Reactor) Write(ctx *IOContext, timeout Timeout, fn func() (int, error)) (int, error) {
	return blockingCall(r, ctx, DirWrite, timeout, fn)
}

// Accept is the reactor-aware specialization of blockingCall for a
// non-blocking accept(2)-like syscall.
func (r *Reactor) Accept(ctx *IOContext, timeout Timeout, fn func() (int, error)) (int, error) {
	return blockingCall(r, ctx, DirRead, timeout, fn)
}

// Send is the reactor-aware specialization of blockingCall for a
// non-blocking send(2)-like syscall.
func (r *Reactor) Send(ctx *IOContext, timeout Timeout, fn func() (int, error)) (int, error) {
	return blockingCall(r, ctx, DirWrite, timeout, fn)
}

// Recv is the reactor-aware specialization of blockingCall for a
// non-blocking recv(2)-like syscall.
func (r *Reactor) Recv(ctx *IOContext, timeout Timeout, fn func() (int, error)) (int, error) {
	return blockingCall(r, ctx, DirRead, timeout, fn)
}

// Connect drives a non-blocking connect(2) to completion, per spec.md §4.5
// "Connect": issue connect; if it reports EINPROGRESS, wait on the write
// direction, then fetch SO_ERROR to learn the final outcome.
func (r *Reactor) Connect(ctx *IOContext, timeout Timeout, connect func() error, soError func() (int, error)) error {
	err := connect()
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EINPROGRESS) {
		return err
	}
	if werr := r.WaitForEvent(ctx, DirWrite, timeout); werr != nil {
		return werr
	}
	errno, err := soError()
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}
