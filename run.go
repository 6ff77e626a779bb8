/*
Copyright © 2026 the spotfilling authors.
This file is part of spotfilling.

spotfilling is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

spotfilling is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with spotfilling.  If not, see <http://www.gnu.org/licenses/>.
*/

package spotfilling

import (
	"fmt"
	"time"
)

// Model is the simulation the scheduler drives. The scheduler only ever
// advances it forward; all other interaction happens through the streams.
type Model interface {
	// Advance advances the model state by the given number of seconds.
	Advance(seconds float64) error
}

// Stream is one independently clocked activity serviced by the scheduler:
// it has a next-due time and an action that, when fired, returns the
// following due time. A stream whose due time lies after the run end is
// never serviced again.
type Stream struct {
	name string
	next time.Time
	fire func(now time.Time) (time.Time, error)
}

// NewStream creates a stream that first fires at first.
func NewStream(name string, first time.Time, fire func(now time.Time) (time.Time, error)) *Stream {
	return &Stream{name: name, next: first, fire: fire}
}

// Name returns the stream name.
func (s *Stream) Name() string { return s.name }

// Next returns the stream's next due time.
func (s *Stream) Next() time.Time { return s.next }

// SchedulerStatus reports one serviced event.
type SchedulerStatus struct {
	// Time is the simulated time of the event.
	Time time.Time
	// Stream names the serviced stream.
	Stream string
	// Next is the stream's recomputed due time.
	Next time.Time
}

func (s *SchedulerStatus) String() string {
	return fmt.Sprintf("%s: %s (next %s)",
		s.Time.Format(time.RFC3339), s.Stream, s.Next.Format(time.RFC3339))
}

// Scheduler advances the simulated clock in the smallest leaps needed to
// service its event streams without ever skipping one: each iteration it
// advances the model to the minimum of the streams' due times, then services
// every stream due at that instant. The clock is purely simulated; there is
// no wall-clock pacing.
type Scheduler struct {
	// Log, if non-nil, receives one status message per serviced event.
	Log chan *SchedulerStatus

	model       Model
	start, stop time.Time
	streams     []*Stream
	now         time.Time
}

// NewScheduler creates a scheduler that drives m from start to stop,
// servicing the given streams.
func NewScheduler(m Model, start, stop time.Time, streams ...*Stream) (*Scheduler, error) {
	if m == nil {
		return nil, configErrorf("no model supplied to scheduler")
	}
	if stop.Before(start) {
		return nil, OrderingViolationf("run stop time %v is before start time %v", stop, start)
	}
	if len(streams) == 0 {
		return nil, configErrorf("scheduler needs at least one event stream")
	}
	for _, st := range streams {
		if st.next.Before(start) {
			return nil, OrderingViolationf("stream %q first due time %v is before run start %v",
				st.name, st.next, start)
		}
	}
	return &Scheduler{model: m, start: start, stop: stop, streams: streams}, nil
}

// Now returns the current simulated time.
func (s *Scheduler) Now() time.Time { return s.now }

// Run executes the scheduling loop until the next event would fall after the
// configured stop time. Any error from the model or a stream action aborts
// the run.
func (s *Scheduler) Run() error {
	s.now = s.start
	next := s.start
	for !next.After(s.stop) {
		if next.After(s.now) {
			if err := s.model.Advance(next.Sub(s.now).Seconds()); err != nil {
				return fmt.Errorf("spotfilling: advancing model to %v: %w", next, err)
			}
			s.now = next
		}

		for _, st := range s.streams {
			if st.next.After(s.now) {
				continue
			}
			due, err := st.fire(s.now)
			if err != nil {
				return fmt.Errorf("spotfilling: servicing %q at %v: %w", st.name, s.now, err)
			}
			if due.Before(st.next) {
				return OrderingViolationf("stream %q moved its due time backwards from %v to %v",
					st.name, st.next, due)
			}
			st.next = due
			if s.Log != nil {
				s.Log <- &SchedulerStatus{Time: s.now, Stream: st.name, Next: due}
			}
		}

		next = s.streams[0].next
		for _, st := range s.streams[1:] {
			if st.next.Before(next) {
				next = st.next
			}
		}
	}
	return nil
}

// Forcing is one forcing-index record: the instant at which the value takes
// effect and the value itself.
type Forcing struct {
	Time  time.Time
	Value float64
}

// ForcingStream returns a stream that feeds successive forcing-index values
// into the model as their timestamps come due. Records must be in
// non-decreasing time order (validated by the input layer). After the last
// record has been applied the stream's due time is pushed past stop so it is
// never serviced again.
func ForcingStream(m *Plasmasphere, records []Forcing, stop time.Time) (*Stream, error) {
	if len(records) == 0 {
		return nil, configErrorf("no forcing records supplied")
	}
	never := stop.Add(time.Second)
	i := 0
	return NewStream("forcing", records[0].Time, func(now time.Time) (time.Time, error) {
		m.SetKp(records[i].Value)
		i++
		if i >= len(records) {
			return never, nil
		}
		return records[i].Time, nil
	}), nil
}

// StateStream returns a stream that writes a model state record every period,
// starting at first.
func StateStream(m *Plasmasphere, w *StateWriter, first time.Time, period time.Duration) (*Stream, error) {
	if period <= 0 {
		return nil, configErrorf("state output period must be positive, got %v", period)
	}
	return NewStream("state", first, func(now time.Time) (time.Time, error) {
		if err := w.WriteState(now, m); err != nil {
			return time.Time{}, err
		}
		return now.Add(period), nil
	}), nil
}

// SampleStream returns a stream that writes one line of sampled values every
// period, starting at first.
func SampleStream(m *Plasmasphere, w *SampleWriter, first time.Time, period time.Duration) (*Stream, error) {
	if period <= 0 {
		return nil, configErrorf("sample output period must be positive, got %v", period)
	}
	return NewStream("sample", first, func(now time.Time) (time.Time, error) {
		if err := w.WriteSamples(now, m); err != nil {
			return time.Time{}, err
		}
		return now.Add(period), nil
	}), nil
}

// SpotRefreshPeriod is the default period of the spot-refresh tick that
// keeps the spot stage's cached time current.
const SpotRefreshPeriod = 300 * time.Second

// SpotStream returns a stream that refreshes the spot stage's current-time
// cursor every period, starting at first.
func SpotStream(f *SpotFilling, first time.Time, period time.Duration) (*Stream, error) {
	if period <= 0 {
		return nil, configErrorf("spot refresh period must be positive, got %v", period)
	}
	return NewStream("spot", first, func(now time.Time) (time.Time, error) {
		f.SetTime(now)
		return now.Add(period), nil
	}), nil
}
