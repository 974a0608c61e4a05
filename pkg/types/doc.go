// Package types defines the entities, the property value union, the storage
// interfaces, and the standard errors shared by every taskboard package.
package types
