// Package integration provides a test harness for integration tests that
// run real shells against a scripted stand-in for the Cordova CLI.
//
// Requirements:
//   - a POSIX /bin/sh
//   - sleep on the PATH
//
// Tests are skipped in -short mode and when THYM_SKIP_INTEGRATION_TESTS is
// set:
//
//	go test -short ./...                            # skip integration tests
//	THYM_SKIP_INTEGRATION_TESTS=1 go test ./...     # same
//
// Example usage:
//
//	func TestMyFeature(t *testing.T) {
//	    h := integration.NewHarness(t)
//	    project := h.CreateProject("demo")
//	    res, err := h.CLI(project).Build(context.Background())
//	    // assert on res.State, err and h.Invocations(project)
//	}
package integration
