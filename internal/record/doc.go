// Package record defines the records held by the sealstore record store and
// the opaque payload model they carry.
//
// Records come in four kinds: commitments, sealed orders, audit events and
// escrows. Each is an identifier plus an Object payload. The store never
// interprets payloads; this package only knows how to copy, encode and
// decode them.
//
// Payload values:
//   - Null, String, Int, Number, Bool, Array and Object
//   - Int holds integers that fit int64; every other number is a Number
//     holding its literal, so 0.5 and 1.0 come back exactly as written
//   - JSON and YAML decoders keep scalar text; nothing passes through float64
//   - Object keys iterate in RFC 8785 order via SortedKeys
//
// The JSON form of a record is flat: the payload fields plus an "id" key.
//
//	{"amount":100,"id":"0b6f4d5e-..."}
package record
