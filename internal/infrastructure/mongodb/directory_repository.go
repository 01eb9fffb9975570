package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shopfront/order-platform/internal/domain"
)

// UserRepository implements domain.UserDirectory using MongoDB
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(UsersCollection)}
}

// FindByID returns nil, nil when the user does not exist
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	if err := findOne(ctx, r.collection, userID, &user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// FindManyByIDs returns the users that exist among userIDs
func (r *UserRepository) FindManyByIDs(ctx context.Context, userIDs []string) ([]*domain.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*domain.User, 0, len(userIDs))
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// AddressRepository implements domain.AddressBook using MongoDB
type AddressRepository struct {
	collection *mongo.Collection
}

// NewAddressRepository creates a new AddressRepository
func NewAddressRepository(db *mongo.Database) *AddressRepository {
	return &AddressRepository{collection: db.Collection(AddressesCollection)}
}

// FindByID returns nil, nil when the address does not exist
func (r *AddressRepository) FindByID(ctx context.Context, addressID string) (*domain.Address, error) {
	var address domain.Address
	if err := findOne(ctx, r.collection, addressID, &address); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}
	return &address, nil
}

// AdminCredentialRepository implements domain.AdminCredentialStore using MongoDB
type AdminCredentialRepository struct {
	collection *mongo.Collection
}

// NewAdminCredentialRepository creates a new AdminCredentialRepository
func NewAdminCredentialRepository(db *mongo.Database) *AdminCredentialRepository {
	return &AdminCredentialRepository{collection: db.Collection(AdminCredentialsCollection)}
}

// FindByUsername returns nil, nil for unknown usernames
func (r *AdminCredentialRepository) FindByUsername(ctx context.Context, username string) (*domain.AdminCredential, error) {
	var credential domain.AdminCredential
	if err := findOne(ctx, r.collection, username, &credential); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find admin credential: %w", err)
	}
	return &credential, nil
}

func findOne(ctx context.Context, collection *mongo.Collection, id string, out interface{}) error {
	return collection.FindOne(ctx, bson.M{"_id": id}).Decode(out)
}
