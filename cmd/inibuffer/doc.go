// Package main hosts the inibuffer command line.
//
// The cobra command tree loads an INI buffer from a local file or any
// repository URI understood by source.New, reads and edits typed values,
// renders the buffer as a table or in a structured format, and serves one or
// more repositories over HTTP.
package main
