/*
Package executor is the HTTP client for the remote execution service.

It POSTs {"code": source} to the configured URL and decodes the reply into an
execution.Response. Anything short of a 2xx reply carrying a JSON object is a
*execution.TransportError, so callers can tell an unreachable or misbehaving
service apart from code that ran and failed.

Each call passes through, in order:
  - a circuit breaker, which fails fast while the service is known to be down
  - a token-bucket limiter (unlimited unless EXECUTOR_RATE_LIMIT is set)
  - resty over a pooled transport, with retries disabled so one accepted run
    is exactly one request
*/
package executor
