// Package library manages an optional git-backed template library: a remote
// repository holding the prdflow workflow templates (create-prd.md,
// generate-tasks.md, process-task-list.md).
//
// The library is cloned into a cache directory under the storage dir and
// refreshed on demand via the sync command. Private repositories authenticate
// with a GitHub Personal Access Token kept in the OS credential store.
package library
