// Package vmupkg builds and parses VMU file packages.
//
// Raw data can be written to a memory card as-is, but interoperating
// with everything else on the platform means wrapping it in the
// standard file package: a fixed 128-byte header with descriptions and
// an application ID, optional animated icons and an eyecatch image,
// the payload, and a CRC over the whole image.
//
// This is purely a serialization concern, independent of the bus and
// polling layers.
package vmupkg
