// Package storage provides the in-memory key/value map a development
// replica serves. It has no versioning or persistence.
package storage
