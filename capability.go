package shroud

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"strings"

	"golang.org/x/crypto/blowfish"
)

// KeyAlgo names a key algorithm a SecretKey can be bound to.
// Names follow the JCA spelling and are matched case-insensitively.
type KeyAlgo string

const (
	// KeyAES binds derived material to AES (16 bytes, AES-128).
	KeyAES KeyAlgo = "AES"

	// KeyDES binds derived material to single DES. Only the first 8 bytes are used.
	KeyDES KeyAlgo = "DES"

	// KeyDESede binds derived material to triple DES. Triple DES needs 24 bytes,
	// so ciphers built from 16-byte derived material fail with ErrCipherFailure.
	KeyDESede KeyAlgo = "DESede"

	// KeyBlowfish binds derived material to Blowfish.
	KeyBlowfish KeyAlgo = "Blowfish"
)

// Mode is a block cipher mode of operation.
type Mode string

// ModeECB encrypts every block independently. It needs no IV, so identical
// plaintext always produces identical ciphertext.
const ModeECB Mode = "ECB"

// Padding is a block padding scheme.
type Padding string

const (
	// PaddingPKCS5 pads to the cipher block size (PKCS#5/PKCS#7).
	PaddingPKCS5 Padding = "PKCS5Padding"

	// PaddingNone requires input to be a multiple of the block size.
	PaddingNone Padding = "NoPadding"
)

// Defaults mirror the configuration surface defaults.
const (
	DefaultKeyAlgorithm    = string(KeyAES)
	DefaultCipherAlgorithm = "AES/ECB/PKCS5Padding"
)

// blockFactory builds a block cipher from raw key material.
type blockFactory func(material []byte) (cipher.Block, error)

// validKeyAlgos maps lowercase names to canonical algorithms and block constructors.
var validKeyAlgos = map[string]struct {
	algo  KeyAlgo
	block blockFactory
}{
	"aes":      {KeyAES, aes.NewCipher},
	"des":      {KeyDES, func(m []byte) (cipher.Block, error) { return des.NewCipher(m[:8]) }},
	"desede":   {KeyDESede, des.NewTripleDESCipher},
	"blowfish": {KeyBlowfish, func(m []byte) (cipher.Block, error) { return blowfish.NewCipher(m) }},
}

// validModes contains all supported modes.
var validModes = map[string]Mode{
	"ecb": ModeECB,
}

// validPaddings contains all supported paddings.
var validPaddings = map[string]Padding{
	"pkcs5padding": PaddingPKCS5,
	"nopadding":    PaddingNone,
}

// ParseKeyAlgo returns the canonical form of name.
func ParseKeyAlgo(name string) (KeyAlgo, bool) {
	entry, ok := validKeyAlgos[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return entry.algo, true
}

// IsValidKeyAlgo returns true if name is a known key algorithm.
func IsValidKeyAlgo(name string) bool {
	_, ok := ParseKeyAlgo(name)
	return ok
}

// Transformation is a parsed cipher algorithm string such as "AES/ECB/PKCS5Padding".
type Transformation struct {
	Algorithm KeyAlgo
	Mode      Mode
	Padding   Padding
}

// String renders the transformation in ALG/MODE/PADDING form.
func (t Transformation) String() string {
	return string(t.Algorithm) + "/" + string(t.Mode) + "/" + string(t.Padding)
}

// ParseTransformation parses "ALG" or "ALG/MODE/PADDING".
// A bare algorithm name implies ECB with PKCS5 padding.
// Unknown parts fail with ErrUnsupportedAlgorithm.
func ParseTransformation(s string) (Transformation, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")

	var t Transformation
	switch len(parts) {
	case 1:
		t.Mode = ModeECB
		t.Padding = PaddingPKCS5
	case 3:
		mode, ok := validModes[strings.ToLower(parts[1])]
		if !ok {
			return Transformation{}, newConfigError(ErrUnsupportedAlgorithm, s, "mode")
		}
		padding, ok := validPaddings[strings.ToLower(parts[2])]
		if !ok {
			return Transformation{}, newConfigError(ErrUnsupportedAlgorithm, s, "padding")
		}
		t.Mode = mode
		t.Padding = padding
	default:
		return Transformation{}, newConfigError(ErrUnsupportedAlgorithm, s, "")
	}

	algo, ok := ParseKeyAlgo(parts[0])
	if !ok {
		return Transformation{}, newConfigError(ErrUnsupportedAlgorithm, s, "")
	}
	t.Algorithm = algo
	return t, nil
}

// IsValidCipherAlgo returns true if s parses as a supported transformation.
func IsValidCipherAlgo(s string) bool {
	_, err := ParseTransformation(s)
	return err == nil
}
