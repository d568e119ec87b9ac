package shroud

import (
	"bytes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// keySize is the number of digest bytes used as key material.
const keySize = 16

// SecretKey is key material bound to a key algorithm.
// The zero value is not usable.
type SecretKey struct {
	algorithm KeyAlgo
	material  []byte
}

// Algorithm returns the canonical key algorithm name.
func (k SecretKey) Algorithm() string {
	return string(k.algorithm)
}

// Encoded returns a copy of the raw key material.
func (k SecretKey) Encoded() []byte {
	return bytes.Clone(k.material)
}

// Equal reports whether both keys hold the same algorithm and material.
func (k SecretKey) Equal(other SecretKey) bool {
	return k.algorithm == other.algorithm && bytes.Equal(k.material, other.material)
}

// DeriveKey derives a SecretKey from passphrase: the first 16 bytes of the
// SHA-512 digest of its UTF-8 bytes, bound to keyAlgorithm.
// The same passphrase and algorithm always yield identical material.
func DeriveKey(passphrase, keyAlgorithm string) (SecretKey, error) {
	if passphrase == "" {
		return SecretKey{}, newConfigError(ErrInvalidConfiguration, "", "key")
	}

	algo, ok := ParseKeyAlgo(keyAlgorithm)
	if !ok {
		return SecretKey{}, newConfigError(ErrUnsupportedAlgorithm, keyAlgorithm, "key-algorithm")
	}

	digest := sha512.Sum512([]byte(passphrase))
	return SecretKey{
		algorithm: algo,
		material:  bytes.Clone(digest[:keySize]),
	}, nil
}

// Encrypt encrypts the UTF-8 bytes of plaintext under cipherAlgorithm and
// returns the standard Base64 encoding of the ciphertext.
func Encrypt(plaintext string, key SecretKey, cipherAlgorithm string) (string, error) {
	t, block, err := newBlock(key, cipherAlgorithm)
	if err != nil {
		return "", err
	}

	data := []byte(plaintext)
	bs := block.BlockSize()

	switch t.Padding {
	case PaddingPKCS5:
		data = pkcs5Pad(data, bs)
	case PaddingNone:
		if len(data)%bs != 0 {
			return "", cipherFailure("input length %d not a multiple of block size %d", len(data), bs)
		}
	}

	out := make([]byte, len(data))
	ecbEncrypt(block, out, data)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt: Base64-decodes, decrypts under cipherAlgorithm
// and decodes the result as UTF-8. Invalid UTF-8 sequences become U+FFFD.
func Decrypt(base64Ciphertext string, key SecretKey, cipherAlgorithm string) (string, error) {
	t, block, err := newBlock(key, cipherAlgorithm)
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(base64Ciphertext)
	if err != nil {
		return "", cipherFailure("base64 decode: %v", err)
	}

	bs := block.BlockSize()
	if len(ciphertext)%bs != 0 {
		return "", cipherFailure("ciphertext length %d not a multiple of block size %d", len(ciphertext), bs)
	}

	out := make([]byte, len(ciphertext))
	ecbDecrypt(block, out, ciphertext)

	if t.Padding == PaddingPKCS5 {
		out, err = pkcs5Unpad(out, bs)
		if err != nil {
			return "", err
		}
	}

	if !utf8.Valid(out) {
		return strings.ToValidUTF8(string(out), "\uFFFD"), nil
	}
	return string(out), nil
}

// ValidateCipher checks that key can drive cipherAlgorithm.
func ValidateCipher(key SecretKey, cipherAlgorithm string) error {
	_, _, err := newBlock(key, cipherAlgorithm)
	return err
}

// newBlock parses cipherAlgorithm and builds its block cipher from key.
func newBlock(key SecretKey, cipherAlgorithm string) (Transformation, cipher.Block, error) {
	t, err := ParseTransformation(cipherAlgorithm)
	if err != nil {
		return Transformation{}, nil, err
	}

	if len(key.material) == 0 {
		return Transformation{}, nil, newConfigError(ErrInvalidConfiguration, cipherAlgorithm, "key")
	}

	if key.algorithm != t.Algorithm {
		return Transformation{}, nil, cipherFailure("key algorithm %s cannot drive cipher %s", key.algorithm, t)
	}

	block, err := validKeyAlgos[strings.ToLower(string(t.Algorithm))].block(key.material)
	if err != nil {
		return Transformation{}, nil, cipherFailure("init %s: %v", t, err)
	}

	return t, block, nil
}

func ecbEncrypt(block cipher.Block, dst, src []byte) {
	bs := block.BlockSize()
	for i := 0; i < len(src); i += bs {
		block.Encrypt(dst[i:i+bs], src[i:i+bs])
	}
}

func ecbDecrypt(block cipher.Block, dst, src []byte) {
	bs := block.BlockSize()
	for i := 0; i < len(src); i += bs {
		block.Decrypt(dst[i:i+bs], src[i:i+bs])
	}
}

func pkcs5Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs5Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, cipherFailure("empty ciphertext")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, cipherFailure("bad padding")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, cipherFailure("bad padding")
		}
	}

	return data[:len(data)-n], nil
}
