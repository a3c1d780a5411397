package reactchart

import "sync/atomic"

// TransitionRecord describes one executed transition by state path.
type TransitionRecord struct {
	Chart     string
	From      string
	To        string
	Event     string
	Automatic bool
}

// ChannelPublisher is an Observer that forwards executed transitions to a channel.
// Publishing never blocks: records are dropped while the channel is full.
type ChannelPublisher struct {
	NopObserver
	ch      chan<- TransitionRecord
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- TransitionRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) TransitionTaken(c *Chart, t *Transition) {
	rec := TransitionRecord{
		Chart:     c.name,
		From:      c.states[t.source].path,
		To:        c.states[t.Target].path,
		Event:     t.Event,
		Automatic: t.Automatic(),
	}
	select {
	case p.ch <- rec:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the number of records dropped because the channel was full.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

// Close closes the output channel. The chart must not execute transitions afterwards.
func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
