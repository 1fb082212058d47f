package provision

import (
	"testing"

	"github.com/medtrack/console/internal/platform/backend"
)

func TestDisclosure_ClaimOnce(t *testing.T) {
	d := NewDisclosure()
	token := d.Put(backend.CreationResult{SectionID: 101, Username: "sec_101_admin", Secret: "X7!ab"})

	result, ok := d.Claim(token)
	if !ok {
		t.Fatal("first claim must succeed")
	}
	if result.Secret != "X7!ab" {
		t.Errorf("expected secret X7!ab, got %s", result.Secret)
	}

	if _, ok := d.Claim(token); ok {
		t.Error("second claim must fail; there is no show-again path")
	}
}

func TestDisclosure_UnknownToken(t *testing.T) {
	d := NewDisclosure()
	if _, ok := d.Claim("nope"); ok {
		t.Error("expected miss for unknown token")
	}
}

func TestDisclosure_Discard(t *testing.T) {
	d := NewDisclosure()
	token := d.Put(backend.CreationResult{SectionID: 1, Username: "u", Secret: "s"})

	d.Discard(token)
	if _, ok := d.Claim(token); ok {
		t.Error("discarded credentials must not be claimable")
	}
	if d.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", d.Pending())
	}
}

func TestDisclosure_TokensAreDistinct(t *testing.T) {
	d := NewDisclosure()
	t1 := d.Put(backend.CreationResult{SectionID: 1})
	t2 := d.Put(backend.CreationResult{SectionID: 2})
	if t1 == t2 {
		t.Fatal("tokens must be unique")
	}
	r1, _ := d.Claim(t1)
	r2, _ := d.Claim(t2)
	if r1.SectionID != 1 || r2.SectionID != 2 {
		t.Errorf("claims crossed: %d, %d", r1.SectionID, r2.SectionID)
	}
}
