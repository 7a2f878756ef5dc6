package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	s1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(s1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(s1), saltSize)
	}
	s2, _ := GenerateSalt()
	if bytes.Equal(s1, s2) {
		t.Error("two salts should differ")
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, saltSize)
	k1 := DeriveKey("hunter2", salt)
	k2 := DeriveKey("hunter2", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt should derive the same key")
	}
	if len(k1) != keySize {
		t.Errorf("key length = %d, want %d", len(k1), keySize)
	}
	if bytes.Equal(k1, DeriveKey("hunter3", salt)) {
		t.Error("different passphrases should derive different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte(`{"roles":[{"id":"r1","name":"Mia","points":7}],"taskDefs":[],"dailyTasks":{},"rewards":[]}`)

	enc, err := Encrypt(plain, "correct horse")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(enc, []byte("Mia")) {
		t.Error("ciphertext leaks plaintext")
	}

	got, err := Decrypt(enc, "correct horse")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip = %s, want %s", got, plain)
	}

	again, _ := Encrypt(plain, "correct horse")
	if bytes.Equal(enc, again) {
		t.Error("two encryptions should use different salt and nonce")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	enc, err := Encrypt([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(enc, "wrong"); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	enc, _ := Encrypt([]byte("secret payload"), "pass")
	enc[len(enc)-1] ^= 0xff
	if _, err := Decrypt(enc, "pass"); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestEncryptDecryptEmpty(t *testing.T) {
	enc, err := Encrypt(nil, "pass")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := Decrypt(enc, "pass")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bytes, want 0", len(got))
	}
}

func TestDecryptTooSmall(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pass"); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("err = %v, want ErrCiphertextTooShort", err)
	}
}

func TestEmptyPassphraseRejected(t *testing.T) {
	if _, err := Encrypt([]byte("x"), ""); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("encrypt err = %v, want ErrNoPassphrase", err)
	}
	if _, err := Decrypt(make([]byte, 64), ""); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("decrypt err = %v, want ErrNoPassphrase", err)
	}
}
