// Package textutil provides filename and token sanitization for files the CLI
// writes on behalf of backend entities (downloads, caption exports, handles).
package textutil
