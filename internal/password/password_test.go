package password

import (
	"strings"
	"testing"
)

func TestBcryptHashAndVerify(t *testing.T) {
	h := NewBcrypt(4)
	digest, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "Passw0rd!" {
		t.Fatalf("digest must not equal plaintext")
	}
	if !h.Verify(digest, "Passw0rd!") {
		t.Fatalf("expected correct password to verify")
	}
	if h.Verify(digest, "passw0rd!") {
		t.Fatalf("expected case variant to be rejected")
	}
}

func TestBcryptLongPasswordsUseEveryByte(t *testing.T) {
	h := NewBcrypt(4)
	base := strings.Repeat("Ab1!", 25)
	digest, err := h.Hash(base + "x")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify(digest, base+"x") {
		t.Fatalf("expected long password to verify")
	}
	if h.Verify(digest, base+"y") {
		t.Fatalf("expected difference past byte 72 to matter")
	}
}

func TestArgon2idHashAndVerify(t *testing.T) {
	h := NewArgon2id(Argon2Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	digest, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected digest format %q", digest)
	}
	if !h.Verify(digest, "Passw0rd!") {
		t.Fatalf("expected correct password to verify")
	}
	if h.Verify(digest, "Passw0rd?") {
		t.Fatalf("expected wrong password to be rejected")
	}
	if h.Verify("$argon2id$v=19$garbage", "Passw0rd!") {
		t.Fatalf("expected malformed digest to be rejected")
	}
}

func TestDispatcherVerifiesBothFormats(t *testing.T) {
	bc, err := New(AlgorithmBcrypt)
	if err != nil {
		t.Fatalf("new bcrypt: %v", err)
	}
	a2, err := New(AlgorithmArgon2id)
	if err != nil {
		t.Fatalf("new argon2id: %v", err)
	}

	bcDigest, err := bc.Hash("S3cure!pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a2Digest, err := a2.Hash("S3cure!pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !a2.Verify(bcDigest, "S3cure!pass") {
		t.Fatalf("argon2id hasher should still verify bcrypt digests")
	}
	if !bc.Verify(a2Digest, "S3cure!pass") {
		t.Fatalf("bcrypt hasher should still verify argon2id digests")
	}
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := New("md5"); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}

func TestAssess(t *testing.T) {
	weak := Assess("Passw0rd!")
	if weak.Strong || weak.Hint == "" {
		t.Fatalf("expected weak estimate with hint, got %+v", weak)
	}
	strong := Assess("correct-Horse-battery-staple-42!")
	if !strong.Strong {
		t.Fatalf("expected strong estimate, got %+v", strong)
	}
	if strong.EntropyBits <= weak.EntropyBits {
		t.Fatalf("expected more entropy for the longer password")
	}
}
