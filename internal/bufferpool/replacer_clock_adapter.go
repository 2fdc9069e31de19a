package bufferpool

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novabuf/pkg/clockx"
	"github.com/tuannm99/novabuf/pkg/lrukx"
)

type clockAdapter struct {
	c *clockx.Clock
}

func newClockAdapter(capacity int) Replacer {
	return &clockAdapter{c: clockx.New(capacity)}
}

// CLOCK has no notion of access kind; it only sets the ref bit.
func (a *clockAdapter) RecordAccess(frameID int, _ lrukx.AccessType) error {
	return translateClockErr(a.c.Touch(frameID))
}

func (a *clockAdapter) SetEvictable(frameID int, e bool) error {
	return translateClockErr(a.c.SetEvictable(frameID, e))
}

func (a *clockAdapter) Evict() (int, bool) {
	return a.c.Evict()
}

func (a *clockAdapter) Remove(frameID int) error {
	return translateClockErr(a.c.Remove(frameID))
}

func (a *clockAdapter) Size() int {
	return a.c.Size()
}

// translateClockErr maps clockx errors onto the lrukx sentinels so callers
// branch the same way whatever the policy.
func translateClockErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, clockx.ErrOutOfRange):
		return fmt.Errorf("%w: %v", lrukx.ErrInvalidFrame, err)
	case errors.Is(err, clockx.ErrPinned):
		return fmt.Errorf("%w: %v", lrukx.ErrFrameNotEvictable, err)
	default:
		return err
	}
}
