// Package keys manages the X25519 key pairs that discharge services
// use to receive sealed third-party caveats.
//
// Stable:
//   - Pure, deterministic primitives: public-key formatting, parsing,
//     and service-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and related functions).
//     These are local-first utilities and are not part of the long-term protocol contract.
package keys
