// Package lockcheck verifies that a directory of protocol definition files
// still matches its committed hash manifest.
//
// Every non-excluded source file must have exactly one manifest entry whose
// digest equals the digest of the file's current content, and every manifest
// entry must name an existing file. Verify reports violations as a Result;
// a drifted lock is a normal outcome, not an error. Result.Err converts it
// into an *InconsistentLockError for callers that want to fail.
//
// Usage:
//
//	res, err := lockcheck.Verify(ctx, lockcheck.Options{
//	    SourceDir:    "proto",
//	    ManifestPath: "proto/proto.sum",
//	    Exclusions:   lockcheck.NewExclusions("legacy.proto"),
//	})
//	if err != nil {
//	    return err // parse, I/O or cancellation failure
//	}
//	if !res.Consistent() {
//	    fmt.Fprint(os.Stderr, lockcheck.Report(res))
//	}
package lockcheck
