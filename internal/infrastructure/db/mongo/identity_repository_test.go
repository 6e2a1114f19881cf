package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

func TestProbeFilter(t *testing.T) {
	if f := probeFilter(ports.Probe{}); f != nil {
		t.Fatalf("empty probe must not produce a filter, got %v", f)
	}

	f := probeFilter(ports.Probe{Email: "a@x.com"})
	if f["email"] != "a@x.com" || len(f) != 1 {
		t.Fatalf("unexpected email-only filter %v", f)
	}

	f = probeFilter(ports.Probe{Email: "a@x.com", Phone: "+1"})
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or of two clauses, got %v", f)
	}
	if or[1].(bson.M)["phone"] != "+1" {
		t.Fatalf("unexpected phone clause %v", or[1])
	}
}

func TestDocRoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := &domain.Identity{
		Role:          domain.RoleAgent,
		Email:         "a@x.com",
		Phone:         "+1",
		PasswordHash:  "$2a$10$hash",
		BusinessName:  "Biz",
		LicenseNumber: "L1",
		Active:        true,
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	doc := toDoc(domain.StoreAgents, in)
	if doc.Role != "" {
		t.Fatalf("legacy stores have no role column, got %q", doc.Role)
	}
	doc.ID = primitive.NewObjectID()

	out := fromDoc(domain.StoreAgents, doc)
	if out.ID != doc.ID.Hex() || out.Store != domain.StoreAgents {
		t.Fatalf("unexpected identity %+v", out)
	}
	if !out.CreatedAt.Equal(created) || out.BusinessName != "Biz" {
		t.Fatalf("fields lost in round trip: %+v", out)
	}

	if d := toDoc(domain.StoreUsers, in); d.Role != "agent" {
		t.Fatalf("users store must persist the role, got %q", d.Role)
	}
}
