// Package model defines stable boundary types for tooling and API layers.
//
// Protocol identity (wire images, signatures, fingerprints) is unaffected by
// any projection. These structs are the only types intended for direct JSON
// serialization by consumers.
package model
