// Package tle parses and validates NORAD two-line element records.
//
// Column handling mirrors the propagation library's own slicing so that a
// record accepted here can never trip that library's fatal parse paths.
package tle
