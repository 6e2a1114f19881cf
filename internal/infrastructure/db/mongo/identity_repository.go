package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

// IdentityRepository implements ports.CredentialStore with one collection per
// store kind.
type IdentityRepository struct {
	db    *mongo.Database
	colls map[domain.StoreKind]*mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		db: db,
		colls: map[domain.StoreKind]*mongo.Collection{
			domain.StoreUsers:  db.Collection(string(domain.StoreUsers)),
			domain.StoreAgents: db.Collection(string(domain.StoreAgents)),
			domain.StoreAdmins: db.Collection(string(domain.StoreAdmins)),
		},
	}
}

type identityDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Role         string             `bson:"role,omitempty"`
	Email        string             `bson:"email"`
	Phone        string             `bson:"phone,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	PasswordHash string             `bson:"password_hash"`

	BusinessName      string `bson:"business_name,omitempty"`
	LicenseNumber     string `bson:"license_number,omitempty"`
	YearsOfExperience int    `bson:"years_of_experience,omitempty"`

	Department string `bson:"department,omitempty"`
	EmployeeID string `bson:"employee_id,omitempty"`

	PrimaryID string `bson:"primary_id,omitempty"`
	Active    bool   `bson:"is_active"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func toDoc(store domain.StoreKind, id *domain.Identity) identityDoc {
	doc := identityDoc{
		Email:             id.Email,
		Phone:             id.Phone,
		FirstName:         id.FirstName,
		LastName:          id.LastName,
		PasswordHash:      id.PasswordHash,
		BusinessName:      id.BusinessName,
		LicenseNumber:     id.LicenseNumber,
		YearsOfExperience: id.YearsOfExperience,
		Department:        id.Department,
		EmployeeID:        id.EmployeeID,
		PrimaryID:         id.PrimaryID,
		Active:            id.Active,
		CreatedAt:         id.CreatedAt.Unix(),
		UpdatedAt:         id.UpdatedAt.Unix(),
	}
	// Only the unified store has a role column.
	if store == domain.StoreUsers {
		doc.Role = string(id.Role)
	}
	return doc
}

func fromDoc(store domain.StoreKind, doc identityDoc) *domain.Identity {
	return &domain.Identity{
		ID:                doc.ID.Hex(),
		Store:             store,
		Role:              domain.Role(doc.Role),
		Email:             doc.Email,
		Phone:             doc.Phone,
		FirstName:         doc.FirstName,
		LastName:          doc.LastName,
		PasswordHash:      doc.PasswordHash,
		BusinessName:      doc.BusinessName,
		LicenseNumber:     doc.LicenseNumber,
		YearsOfExperience: doc.YearsOfExperience,
		Department:        doc.Department,
		EmployeeID:        doc.EmployeeID,
		PrimaryID:         doc.PrimaryID,
		Active:            doc.Active,
		CreatedAt:         unixToTime(doc.CreatedAt),
		UpdatedAt:         unixToTime(doc.UpdatedAt),
	}
}

// probeFilter ORs the non-empty probe fields. It returns nil for an empty probe.
func probeFilter(p ports.Probe) bson.M {
	var or bson.A
	if p.Email != "" {
		or = append(or, bson.M{"email": p.Email})
	}
	if p.Phone != "" {
		or = append(or, bson.M{"phone": p.Phone})
	}
	switch len(or) {
	case 0:
		return nil
	case 1:
		return or[0].(bson.M)
	}
	return bson.M{"$or": or}
}

func (r *IdentityRepository) coll(store domain.StoreKind) (*mongo.Collection, error) {
	c, ok := r.colls[store]
	if !ok {
		return nil, domain.ErrInvalidStore
	}
	return c, nil
}

func (r *IdentityRepository) FindByProbe(ctx context.Context, store domain.StoreKind, probe ports.Probe) (*domain.Identity, error) {
	c, err := r.coll(store)
	if err != nil {
		return nil, err
	}
	filter := probeFilter(probe)
	if filter == nil {
		return nil, domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := c.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find %s: %w", store, err)
	}
	return fromDoc(store, doc), nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, store domain.StoreKind, id string) (*domain.Identity, error) {
	c, err := r.coll(store)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := c.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find %s by id: %w", store, err)
	}
	return fromDoc(store, doc), nil
}

func (r *IdentityRepository) Create(ctx context.Context, store domain.StoreKind, identity *domain.Identity) (*domain.Identity, error) {
	c, err := r.coll(store)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDoc(store, identity)
	res, err := c.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert %s: %w", store, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return fromDoc(store, doc), nil
}

func (r *IdentityRepository) Delete(ctx context.Context, store domain.StoreKind, id string) error {
	c, err := r.coll(store)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := c.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete %s: %w", store, err)
	}
	return nil
}

func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the unique indexes that back duplicate detection.
// The admins collection has no phone column to index.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		}
	}
	// Legacy agent records may predate the phone requirement.
	sparseUnique := func(field string) mongo.IndexModel {
		m := unique(field)
		m.Options.SetSparse(true)
		return m
	}

	plan := map[domain.StoreKind][]mongo.IndexModel{
		domain.StoreUsers:  {unique("email"), unique("phone")},
		domain.StoreAgents: {unique("email"), sparseUnique("phone")},
		domain.StoreAdmins: {unique("email")},
	}
	for store, indexes := range plan {
		if _, err := r.colls[store].Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", store, err)
		}
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
