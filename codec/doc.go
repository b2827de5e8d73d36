// Package codec holds ready-made transform units (text rotation, base64 and
// hex coding, digests, gzip compression, a stream cipher and substring
// replacement) and a registry that builds them by name for pipeline
// definitions.
package codec
