// Package fileops provides the low-level file access and path validation
// primitives used by the prdflow server.
//
// The package has two responsibilities:
//
//   - File access: Exists and ReadText, the read-only accessor the append
//     tool and the template loader use to reach documents on disk. ReadText
//     reports failures with a typed reason (NotFound, PermissionDenied,
//     NotAFile, EncodingError) so callers can build precise error payloads
//     without re-parsing the underlying syscall error.
//
//   - Path validation: security checks that reject path traversal and
//     system/reserved directories before a user-supplied path is handed to
//     the filesystem.
//
// All operations are read-only except TestWriteToDir, which is used once
// during first-run setup to verify the storage directory is usable.
package fileops
