package shroud

import (
	"bytes"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testKey(t *testing.T) SecretKey {
	t.Helper()
	key, err := DeriveKey("test-key-123456", DefaultKeyAlgorithm)
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}
	return key
}

func TestDeriveKey(t *testing.T) {
	key := testKey(t)

	if key.Algorithm() != "AES" {
		t.Errorf("Algorithm() = %q, want %q", key.Algorithm(), "AES")
	}

	encoded := key.Encoded()
	if len(encoded) != 16 {
		t.Fatalf("len(Encoded()) = %d, want 16", len(encoded))
	}

	digest := sha512.Sum512([]byte("test-key-123456"))
	if !bytes.Equal(encoded, digest[:16]) {
		t.Error("key material should be the first 16 bytes of the SHA-512 digest")
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a := testKey(t)
	b := testKey(t)

	if !a.Equal(b) {
		t.Error("same passphrase should derive equal keys")
	}

	other, err := DeriveKey("another-passphrase", DefaultKeyAlgorithm)
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}
	if a.Equal(other) {
		t.Error("different passphrases should derive different keys")
	}
}

func TestDeriveKey_EncodedIsCopy(t *testing.T) {
	key := testKey(t)
	encoded := key.Encoded()
	encoded[0] ^= 0xFF

	if bytes.Equal(encoded, key.Encoded()) {
		t.Error("mutating Encoded() should not affect the key")
	}
}

func TestDeriveKey_CaseInsensitiveAlgorithm(t *testing.T) {
	key, err := DeriveKey("test-key-123456", "aes")
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}
	if key.Algorithm() != "AES" {
		t.Errorf("Algorithm() = %q, want canonical %q", key.Algorithm(), "AES")
	}
}

func TestDeriveKey_EmptyPassphrase(t *testing.T) {
	_, err := DeriveKey("", DefaultKeyAlgorithm)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("DeriveKey(\"\") error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestDeriveKey_UnknownAlgorithm(t *testing.T) {
	_, err := DeriveKey("test-key-123456", "NotAnAlgorithm")
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("DeriveKey() error = %v, want ErrUnsupportedAlgorithm", err)
	}

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatal("expected ConfigError")
	}
	if ce.Field != "key-algorithm" {
		t.Errorf("Field = %q, want %q", ce.Field, "key-algorithm")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t)

	inputs := []struct {
		name  string
		value string
	}{
		{"phone", "13800138000"},
		{"empty", ""},
		{"block aligned", "0123456789abcdef"},
		{"multi block", strings.Repeat("sensitive ", 10)},
		{"special characters", "p@ss:w/o+r=d!\n\t\"'"},
		{"unicode", "电话号码 ☎ +86"},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := Encrypt(tt.value, key, DefaultCipherAlgorithm)
			if err != nil {
				t.Fatalf("Encrypt() error: %v", err)
			}

			plaintext, err := Decrypt(ciphertext, key, DefaultCipherAlgorithm)
			if err != nil {
				t.Fatalf("Decrypt() error: %v", err)
			}
			if plaintext != tt.value {
				t.Errorf("Decrypt(Encrypt(%q)) = %q", tt.value, plaintext)
			}
		})
	}
}

func TestEncrypt_Deterministic(t *testing.T) {
	key := testKey(t)

	a, err := Encrypt("13800138000", key, DefaultCipherAlgorithm)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	b, err := Encrypt("13800138000", key, DefaultCipherAlgorithm)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if a != b {
		t.Errorf("ECB encryption should be deterministic: %q != %q", a, b)
	}
	if a == "13800138000" {
		t.Error("ciphertext should differ from plaintext")
	}
}

func TestEncrypt_Base64Output(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt("13800138000", key, DefaultCipherAlgorithm)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatalf("ciphertext is not standard base64: %v", err)
	}
	// 11 bytes pad to one AES block.
	if len(raw) != 16 {
		t.Errorf("len(raw) = %d, want 16", len(raw))
	}
}

func TestEncrypt_EmptyPadsFullBlock(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt("", key, DefaultCipherAlgorithm)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if ciphertext == "" {
		t.Error("empty plaintext should still produce a padding block")
	}
}

func TestEncryptDecrypt_BareAlgorithm(t *testing.T) {
	key := testKey(t)

	full, err := Encrypt("13800138000", key, "AES/ECB/PKCS5Padding")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	bare, err := Encrypt("13800138000", key, "AES")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if full != bare {
		t.Error("bare AES should match AES/ECB/PKCS5Padding")
	}
}

func TestEncryptDecrypt_OtherAlgorithms(t *testing.T) {
	tests := []struct {
		keyAlgo string
		cipher  string
	}{
		{"DES", "DES/ECB/PKCS5Padding"},
		{"Blowfish", "Blowfish"},
		{"Blowfish", "Blowfish/ECB/PKCS5Padding"},
	}

	for _, tt := range tests {
		t.Run(tt.cipher, func(t *testing.T) {
			key, err := DeriveKey("test-key-123456", tt.keyAlgo)
			if err != nil {
				t.Fatalf("DeriveKey() error: %v", err)
			}

			ciphertext, err := Encrypt("13800138000", key, tt.cipher)
			if err != nil {
				t.Fatalf("Encrypt() error: %v", err)
			}
			plaintext, err := Decrypt(ciphertext, key, tt.cipher)
			if err != nil {
				t.Fatalf("Decrypt() error: %v", err)
			}
			if plaintext != "13800138000" {
				t.Errorf("round trip = %q, want %q", plaintext, "13800138000")
			}
		})
	}
}

func TestEncrypt_DESedeShortKey(t *testing.T) {
	key, err := DeriveKey("test-key-123456", "DESede")
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}

	_, err = Encrypt("13800138000", key, "DESede/ECB/PKCS5Padding")
	if !errors.Is(err, ErrCipherFailure) {
		t.Errorf("Encrypt() error = %v, want ErrCipherFailure", err)
	}
}

func TestEncrypt_NoPadding(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt("0123456789abcdef", key, "AES/ECB/NoPadding")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	plaintext, err := Decrypt(ciphertext, key, "AES/ECB/NoPadding")
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if plaintext != "0123456789abcdef" {
		t.Errorf("round trip = %q", plaintext)
	}

	_, err = Encrypt("short", key, "AES/ECB/NoPadding")
	if !errors.Is(err, ErrCipherFailure) {
		t.Errorf("Encrypt() unaligned error = %v, want ErrCipherFailure", err)
	}
}

func TestEncrypt_KeyCipherMismatch(t *testing.T) {
	key := testKey(t)

	_, err := Encrypt("13800138000", key, "DES/ECB/PKCS5Padding")
	if !errors.Is(err, ErrCipherFailure) {
		t.Errorf("Encrypt() error = %v, want ErrCipherFailure", err)
	}
}

func TestEncrypt_UnsupportedCipher(t *testing.T) {
	key := testKey(t)

	_, err := Encrypt("13800138000", key, "AES/CBC/PKCS5Padding")
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("Encrypt() error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestEncrypt_ZeroKey(t *testing.T) {
	_, err := Encrypt("13800138000", SecretKey{}, DefaultCipherAlgorithm)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Encrypt() error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "not*base64!"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.input, key, DefaultCipherAlgorithm)
			if !errors.Is(err, ErrCipherFailure) {
				t.Errorf("Decrypt(%q) error = %v, want ErrCipherFailure", tt.input, err)
			}
		})
	}
}

func TestDecrypt_WrongAlgorithm(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt("13800138000", key, DefaultCipherAlgorithm)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	desKey, err := DeriveKey("test-key-123456", "DES")
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}

	_, err = Decrypt(ciphertext, desKey, DefaultCipherAlgorithm)
	if !errors.Is(err, ErrCipherFailure) {
		t.Errorf("Decrypt() error = %v, want ErrCipherFailure", err)
	}
}

func TestValidateCipher(t *testing.T) {
	key := testKey(t)

	if err := ValidateCipher(key, DefaultCipherAlgorithm); err != nil {
		t.Errorf("ValidateCipher() error: %v", err)
	}
	if err := ValidateCipher(key, "NotAnAlgorithm"); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("ValidateCipher() error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestPKCS5(t *testing.T) {
	for n := 0; n <= 32; n++ {
		data := bytes.Repeat([]byte{'x'}, n)
		padded := pkcs5Pad(data, 16)

		if len(padded)%16 != 0 || len(padded) <= n {
			t.Fatalf("pkcs5Pad(%d bytes) produced %d bytes", n, len(padded))
		}

		out, err := pkcs5Unpad(padded, 16)
		if err != nil {
			t.Fatalf("pkcs5Unpad() error: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Errorf("unpad(pad(%d bytes)) mismatch", n)
		}
	}
}

func TestPKCS5Unpad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"zero pad byte", append(bytes.Repeat([]byte{'x'}, 15), 0)},
		{"pad larger than block", append(bytes.Repeat([]byte{'x'}, 15), 17)},
		{"inconsistent pad", append(bytes.Repeat([]byte{'x'}, 14), 3, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pkcs5Unpad(tt.data, 16); !errors.Is(err, ErrCipherFailure) {
				t.Errorf("pkcs5Unpad() error = %v, want ErrCipherFailure", err)
			}
		})
	}
}
