//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// epollBackend implements pollerBackend atop epoll, grounded on the
// teacher's FastPoller (eventloop/poller_linux.go). Unlike FastPoller this
// backend is touched only by the baton holder (never from another OS
// thread), so it needs none of FastPoller's RWMutex/atomic-version
// machinery. Registrations use
// EPOLLET (edge-triggered), per spec.md §4.5's readiness-poller contract.
type epollBackend struct {
	epfd     int
	eventBuf [256]unix.EpollEvent
}

func newPollerBackend() pollerBackend { return &epollBackend{epfd: -1} }

func (b *epollBackend) init() error {
	if b.epfd >= 0 {
		return nil
	}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	b.epfd = fd
	return nil
}

func (b *epollBackend) close() error {
	if b.epfd < 0 {
		return nil
	}
	err := unix.Close(b.epfd)
	b.epfd = -1
	return err
}

func epollMask(wantRead, wantWrite bool) uint32 {
	var m uint32 = unix.EPOLLET
	if wantRead {
		m |= unix.EPOLLIN
	}
	if wantWrite {
		m |= unix.EPOLLOUT
	}
	return m
}

func (b *epollBackend) add(fd int, wantRead, wantWrite bool) error {
	ev := &unix.EpollEvent{Events: epollMask(wantRead, wantWrite), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (b *epollBackend) modify(fd int, wantRead, wantWrite bool) error {
	ev := &unix.EpollEvent{Events: epollMask(wantRead, wantWrite), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (b *epollBackend) remove(fd int) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait(timeoutMs int, dispatch func(fd int, readable, writable, errored bool)) error {
	n, err := unix.EpollWait(b.epfd, b.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		ev := b.eventBuf[i]
		readable := ev.Events&unix.EPOLLIN != 0
		writable := ev.Events&unix.EPOLLOUT != 0
		errored := ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
		dispatch(int(ev.Fd), readable, writable, errored)
	}
	return nil
}

func (b *epollBackend) supported() bool { return true }

func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}
