package auth

import "testing"

func TestHashKeyIsDeterministic(t *testing.T) {
	a := HashKey("qp_0123456789abcdef")
	b := HashKey("qp_0123456789abcdef")
	if a != b {
		t.Errorf("same key hashed differently: %s vs %s", a, b)
	}
}

func TestHashKeyLength(t *testing.T) {
	h := HashKey("qp_anything")
	if len(h) != 64 {
		t.Errorf("expected 64 hex chars, got %d: %s", len(h), h)
	}
}

func TestHashKeyTrimsWhitespace(t *testing.T) {
	if HashKey("  qp_key\n") != HashKey("qp_key") {
		t.Error("surrounding whitespace changed the hash")
	}
}

func TestHashKeyDistinguishesKeys(t *testing.T) {
	if HashKey("qp_a") == HashKey("qp_b") {
		t.Error("distinct keys collided")
	}
}
