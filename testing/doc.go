// Package testing provides test doubles for code built on the resilient HTTP executor.
//
// # Mocks
//
// The mocks subpackage provides testify-based implementations of the executor's
// collaborators:
//   - MockTransport, a mock.Mock http.Transport with ExpectStatuses / ExpectError helpers
//   - RecordingSleeper, an http.Sleeper that records requested delays without waiting
//
// # Fixtures
//
// The fixtures subpackage provides deterministic transports for common scenarios:
//   - ScriptedTransport answering a fixed sequence of status codes
//   - NewFlakyTransport, failing with 503 a given number of times before recovering
//   - NewUnavailableTransport and NewFailingTransport for outages and transport errors
//
// # Usage
//
//	import (
//		"github.com/gaborage/resilient-http/testing/fixtures"
//		"github.com/gaborage/resilient-http/testing/mocks"
//	)
//
//	sleeper := &mocks.RecordingSleeper{}
//	exec, _ := http.NewBuilder(log).
//		WithTransport(fixtures.NewFlakyTransport(2)).
//		WithSleeper(sleeper).
//		WithMaxRetries(5).
//		Build()
//	// sleeper.Delays() == []time.Duration{10 * time.Second, 20 * time.Second}
package testing
