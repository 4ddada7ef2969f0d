/*
Package resilience provides the circuit breaker that guards calls to the
remote execution service.

# States

- Closed: requests pass through; failures are counted per interval
- Open: requests fail immediately with ErrCircuitOpen, no call is made
- Half-Open: up to MaxRequests probes decide between Closed and Open

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                              Open

# Usage

	breaker := resilience.New("executor", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	resp, err := resilience.Execute(breaker, func() (*Response, error) {
		return client.Call(ctx)
	})

IsSuccessful lets callers keep errors that say nothing about the health of
the remote side (a logical failure reported by a healthy server, a caller
cancellation) from tripping the breaker.
*/
package resilience
