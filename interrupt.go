package steering

// interruptBuffer bounds pending cancel signals per session. Signals past
// a full buffer are dropped; one pending signal already cancels the turn.
const interruptBuffer = 16

// InterruptChannel carries cancel signals into a running turn. Signals
// only take effect at guard checkpoints, never mid-operation.
type InterruptChannel chan struct{}

// NewInterruptChannel creates a buffered interrupt channel.
func NewInterruptChannel() InterruptChannel {
	return make(InterruptChannel, interruptBuffer)
}

// Signal enqueues a cancel signal without blocking.
func (c InterruptChannel) Signal() {
	select {
	case c <- struct{}{}:
	default:
	}
}

// Guard is the cancellation checkpoint. It holds no state beyond the
// channel it inspects.
type Guard struct {
	ch InterruptChannel
}

// NewGuard creates a guard over the given channel.
func NewGuard(ch InterruptChannel) Guard {
	return Guard{ch: ch}
}

// Check peeks the channel without blocking. If a signal is pending it
// drains all pending signals and returns ErrInterrupted, so a cancel
// never bleeds into the next turn. An empty channel returns nil with no
// side effect.
func (g Guard) Check() error {
	select {
	case <-g.ch:
	default:
		return nil
	}
	for {
		select {
		case <-g.ch:
		default:
			return ErrInterrupted
		}
	}
}
