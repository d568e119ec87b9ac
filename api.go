// Package shroud provides transparent field-level encryption at a persistence
// boundary.
//
// Outgoing values of sensitive fields are encrypted before the data-access
// layer writes them, and incoming values are decrypted before application code
// sees them. The data-access layer calls two hooks directly:
//
//	params, err := interceptor.BeforeWrite(ctx, params)   // before INSERT/UPDATE
//	results, err := interceptor.AfterRead(ctx, results)   // after rows are scanned
//
// Both mutate the object graph in place and return the value they were given.
//
// # Declarations
//
// A type participates by implementing Sensitive, usually by embedding
// Declaration. Its sensitive fields carry a struct tag:
//
//	type Contact struct {
//	    shroud.Declaration
//	    ID   int64
//	    Name string
//	    Tel  string `shroud:"sensitive"`
//	}
//
// Only string fields are transformed. Fields of embedded structs count as
// fields of the participant. Types may implement FieldLister to hand out
// field references directly; tagged fields are still honored alongside them.
//
// # Stored Representation
//
// Encrypted values are stored as Sentinel followed by the Base64 ciphertext:
//
//	{shroud}<base64 ciphertext>
//
// The marker is the single source of truth for "already encrypted": the write
// path never encrypts a marked value and the read path never decrypts an
// unmarked one, so re-saving a loaded entity is idempotent and legacy plaintext
// rows stay readable.
//
// # Key Derivation
//
// The key is the first 16 bytes of SHA-512 over the configured passphrase,
// bound to the configured key algorithm (AES, DES, DESede, Blowfish).
//
// # Cipher Mode
//
// The default transformation is AES/ECB/PKCS5Padding. ECB uses no IV, so the
// same plaintext always yields the same ciphertext. That keeps stored values
// stable (they can be compared or indexed) but leaks equality across rows.
// Modes that need an IV are not supported.
//
// # Configuration
//
//	sensitive-data:
//	  data-crypt:
//	    enabled: true
//	    key-algorithm: AES
//	    cipher-algorithm: AES/ECB/PKCS5Padding
//	    key: change-me
//
// Environment variables prefixed with SENSITIVE_DATA_DATA_CRYPT_ override the
// file. See LoadConfig.
//
// # Observability
//
// Interceptors emit capitan signals (SignalWriteComplete, SignalReadComplete,
// ...) carrying type names, counts, durations and errors.
package shroud
