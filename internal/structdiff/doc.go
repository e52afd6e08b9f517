// Package structdiff compares a committed structured lock artifact (JSON,
// e.g. protolock's proto.lock) against a regenerated one.
//
// The comparison is semantic and order-insensitive: objects compare by key,
// arrays compare as multisets, so a regenerated lock that only reorders
// entries is equal to the committed one. A repeated element whose count
// changed is reported as a repetition difference.
//
// Regeneration itself is delegated to a Generator. The package never decides
// how the external lock tool is invoked beyond running the configured
// command.
package structdiff
