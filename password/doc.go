// Package password implements the two-stage salted hash chain used for stored
// credentials.
//
// # Hash chain
//
// Both stages hash the same shape of input:
//
//	salt[0] + salt[2] + middle + salt[5] + salt[4]
//
// where salt[i] is the i-th character (not byte) of the salt, and
// hex-encode the 128-bit digest (32 lowercase characters). Stage one runs
// in the client over a fixed public salt and turns the typed password into a
// form hash; stage two runs on the server over the per-user salt and produces
// the value persisted in the user record.
//
//	FormHash(plain)          = stage(plain, PublicSalt)
//	DBHash(formHash, salt)   = stage(formHash, salt)
//	Hash(plain, salt)        = DBHash(FormHash(plain), salt)
//
// # Architecture boundaries
//
// This package owns hashing, verification and salt generation only. Request
// validation (form hash length) belongs to the validation package and salt
// policy enforcement at provisioning time belongs to the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve users; callers supply hashes and salts.
//   - Import any other ticketAuth package.
//   - Log passwords, form hashes or salts.
package password
