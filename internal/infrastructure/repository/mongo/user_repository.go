package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type userDoc struct {
	ID                   string    `bson:"_id"`
	Name                 string    `bson:"name"`
	Email                string    `bson:"email"`
	PasswordHash         string    `bson:"passwordHash"`
	PhoneNumber          string    `bson:"phoneNumber"`
	Age                  int       `bson:"age"`
	Sex                  string    `bson:"sex"`
	MaritalStatus        string    `bson:"maritalStatus"`
	Address              string    `bson:"address"`
	FatherName           string    `bson:"fatherName"`
	MotherName           string    `bson:"motherName"`
	AnnualIncome         *int64    `bson:"annualIncome"`
	Location             string    `bson:"location"`
	FamilySize           *int      `bson:"familySize"`
	ResidenceType        string    `bson:"residenceType"`
	Category             string    `bson:"category"`
	IsDifferentlyAbled   bool      `bson:"isDifferentlyAbled"`
	DisabilityPercentage *int      `bson:"disabilityPercentage"`
	IsMinority           bool      `bson:"isMinority"`
	IsStudent            bool      `bson:"isStudent"`
	EmploymentStatus     string    `bson:"employmentStatus"`
	IsGovernmentEmployee bool      `bson:"isGovernmentEmployee"`
	CreatedAt            time.Time `bson:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt"`
}

func (d userDoc) profile() domain.Profile {
	return domain.Profile{
		ID:                   d.ID,
		Name:                 d.Name,
		Email:                d.Email,
		PhoneNumber:          d.PhoneNumber,
		Age:                  d.Age,
		Sex:                  domain.Sex(d.Sex),
		MaritalStatus:        domain.MaritalStatus(d.MaritalStatus),
		Address:              d.Address,
		FatherName:           d.FatherName,
		MotherName:           d.MotherName,
		AnnualIncome:         d.AnnualIncome,
		Location:             d.Location,
		FamilySize:           d.FamilySize,
		ResidenceType:        domain.ResidenceType(d.ResidenceType),
		Category:             domain.Category(d.Category),
		IsDifferentlyAbled:   d.IsDifferentlyAbled,
		DisabilityPercentage: d.DisabilityPercentage,
		IsMinority:           d.IsMinority,
		IsStudent:            d.IsStudent,
		EmploymentStatus:     domain.EmploymentStatus(d.EmploymentStatus),
		IsGovernmentEmployee: d.IsGovernmentEmployee,
		CreatedAt:            d.CreatedAt,
	}
}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, account *domain.Account) error {
	p := account.Profile
	doc := userDoc{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: account.PasswordHash,
		PhoneNumber:  p.PhoneNumber,
		Age:          p.Age,
		Sex:          string(p.Sex),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.WrapError(domain.ErrConflict, "create user", fmt.Errorf("email %s already registered", p.Email))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	doc, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get user by email", fmt.Errorf("user %s", email))
		}
		return nil, err
	}
	return &domain.Account{Profile: doc.profile(), PasswordHash: doc.PasswordHash}, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": userID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get profile", fmt.Errorf("user %s", userID))
		}
		return nil, err
	}
	p := doc.profile()
	return &p, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"maritalStatus":        string(p.MaritalStatus),
		"address":              p.Address,
		"fatherName":           p.FatherName,
		"motherName":           p.MotherName,
		"annualIncome":         p.AnnualIncome,
		"location":             p.Location,
		"familySize":           p.FamilySize,
		"residenceType":        string(p.ResidenceType),
		"category":             string(p.Category),
		"isDifferentlyAbled":   p.IsDifferentlyAbled,
		"disabilityPercentage": p.DisabilityPercentage,
		"isMinority":           p.IsMinority,
		"isStudent":            p.IsStudent,
		"employmentStatus":     string(p.EmploymentStatus),
		"isGovernmentEmployee": p.IsGovernmentEmployee,
		"updatedAt":            time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "update profile", fmt.Errorf("user %s", p.ID))
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (userDoc, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, err
		}
		return doc, fmt.Errorf("find user: %w", err)
	}
	return doc, nil
}
