// Package gpt reads, validates, repairs, and writes GUID Partition Tables.
//
// A GPT disk carries redundant metadata: a primary header and entry array
// near the start, and a backup pair near the end, fronted by a protective
// legacy MBR at sector 0. This package loads both copies, cross-checks them,
// and can reconstruct whichever copy is missing or corrupt from the
// surviving one.
package gpt
