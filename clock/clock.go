// Package clock provides an injectable time source so that transition dates,
// event timestamps, and publication attempts stay deterministic in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock returns a fixed instant until advanced.
type MockClock struct {
	NowTime time.Time
}

func NewMock(t time.Time) *MockClock {
	return &MockClock{NowTime: t}
}

func (m *MockClock) Now() time.Time {
	return m.NowTime
}

func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}
