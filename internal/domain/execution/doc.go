// Package execution runs practical source code on the remote execution
// service and classifies every round trip into exactly one Outcome.
//
// The Pipeline is single-flight: while one run is outstanding a second Run
// returns ErrBusy immediately and the request is not queued. Blank input is
// refused with ErrEmptyInput before any network traffic.
package execution
