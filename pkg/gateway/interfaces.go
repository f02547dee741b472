package gateway

import (
	"context"
	"time"
)

// Clock abstracts time-related operations so the gates and the poll loop can
// run against a fake clock in tests.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
	Sleep(ctx context.Context, d time.Duration) error
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}
