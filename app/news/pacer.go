package news

import (
	"context"
	"math/rand"
	"time"
)

// Pacer returns the delay before the given attempt (1-based). It never sleeps;
// Wait does.
type Pacer interface {
	Delay(attempt int) time.Duration
}

// Wait sleeps for the pacer's delay or until ctx is done.
func Wait(ctx context.Context, p Pacer, attempt int) error {
	if p == nil {
		return ctx.Err()
	}

	d := p.Delay(attempt)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type NoDelay struct{}

func (NoDelay) Delay(int) time.Duration { return 0 }

type Fixed time.Duration

func (f Fixed) Delay(int) time.Duration { return time.Duration(f) }

// Jitter returns a uniformly random delay in [Min, Max].
type Jitter struct {
	Min  time.Duration
	Max  time.Duration
	Rand *rand.Rand
}

func (j Jitter) Delay(int) time.Duration {
	if j.Max <= j.Min {
		return j.Min
	}
	span := int64(j.Max - j.Min)
	if j.Rand != nil {
		return j.Min + time.Duration(j.Rand.Int63n(span+1))
	}
	return j.Min + time.Duration(rand.Int63n(span+1))
}

// Exponential doubles Base for every attempt after the first, capped at Max.
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := e.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
	}
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}
