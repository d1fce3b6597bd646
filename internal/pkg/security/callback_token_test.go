package security

import (
	"strings"
	"testing"
	"time"
)

func TestCallbackTokenRoundTrip(t *testing.T) {
	token, err := GenerateCallbackToken("0b8f8a1e-1111-2222-3333-444455556666", time.Hour, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyCallbackToken(token, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.JobUUID != "0b8f8a1e-1111-2222-3333-444455556666" {
		t.Fatalf("unexpected job uuid %q", claims.JobUUID)
	}
}

func TestCallbackTokenWrongSecret(t *testing.T) {
	token, err := GenerateCallbackToken("job-1", time.Hour, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyCallbackToken(token, "other"); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestCallbackTokenTamperedPayload(t *testing.T) {
	token, err := GenerateCallbackToken("job-1", time.Hour, "secret")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.SplitN(token, ".", 2)
	// Reuse the signature with a payload minted for another job
	other, err := GenerateCallbackToken("job-2", time.Hour, "secret")
	if err != nil {
		t.Fatal(err)
	}
	otherParts := strings.SplitN(other, ".", 2)

	forged := otherParts[0] + "." + parts[1]
	if _, err := VerifyCallbackToken(forged, "secret"); err == nil {
		t.Fatal("forged token accepted")
	}
}

func TestCallbackTokenExpiry(t *testing.T) {
	token, err := GenerateCallbackToken("job-1", -time.Minute, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyCallbackToken(token, "secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestCallbackTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "no-dot", "a.b", "!!!.###"} {
		if _, err := VerifyCallbackToken(token, "secret"); err == nil {
			t.Fatalf("malformed token %q accepted", token)
		}
	}
}

func TestCallbackTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateCallbackToken("job-1", time.Hour, ""); err == nil {
		t.Fatal("generation without a secret must fail")
	}
	if _, err := VerifyCallbackToken("a.b", ""); err == nil {
		t.Fatal("verification without a secret must fail")
	}
}
