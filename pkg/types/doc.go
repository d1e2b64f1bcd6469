// Package types defines the task row schema, the Store interface for remote
// tabular worksheets, the audit and authentication interfaces, and the
// standard errors shared across the Ops Portal.
package types
