package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const profileColumns = `id, name, email, phone_number, age, sex, marital_status, address, father_name, mother_name,
	annual_income, location, family_size, residence_type, category, is_differently_abled, disability_percentage,
	is_minority, is_student, employment_status, is_government_employee, created_at`

func (r *UserRepository) Create(ctx context.Context, account *domain.Account) error {
	p := account.Profile
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (
	id, name, email, password_hash, phone_number, age, sex, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, p.ID, p.Name, p.Email, account.PasswordHash, p.PhoneNumber, p.Age, string(p.Sex), p.CreatedAt, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "create user", fmt.Errorf("email %s already registered", p.Email))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+profileColumns+`, password_hash
FROM users
WHERE email = $1
`, email)

	var account domain.Account
	if err := scanProfile(row, &account.Profile, &account.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get user by email", fmt.Errorf("user %s", email))
		}
		return nil, err
	}
	return &account, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+profileColumns+`
FROM users
WHERE id = $1
`, userID)

	var p domain.Profile
	if err := scanProfile(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get profile", fmt.Errorf("user %s", userID))
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile writes the mutable profile fields only.
func (r *UserRepository) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET marital_status = $2, address = $3, father_name = $4, mother_name = $5, annual_income = $6,
	location = $7, family_size = $8, residence_type = $9, category = $10, is_differently_abled = $11,
	disability_percentage = $12, is_minority = $13, is_student = $14, employment_status = $15,
	is_government_employee = $16, updated_at = $17
WHERE id = $1
`,
		p.ID, string(p.MaritalStatus), p.Address, p.FatherName, p.MotherName, nullInt64(p.AnnualIncome),
		p.Location, nullInt(p.FamilySize), string(p.ResidenceType), string(p.Category), p.IsDifferentlyAbled,
		nullInt(p.DisabilityPercentage), p.IsMinority, p.IsStudent, string(p.EmploymentStatus),
		p.IsGovernmentEmployee, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update profile", fmt.Errorf("user %s", p.ID))
	}
	return nil
}

func scanProfile(row rowScanner, p *domain.Profile, extra ...any) error {
	var (
		sex, marital, residence, category, employment string
		income, familySize, disability                sql.NullInt64
	)
	dest := []any{
		&p.ID, &p.Name, &p.Email, &p.PhoneNumber, &p.Age, &sex, &marital, &p.Address, &p.FatherName, &p.MotherName,
		&income, &p.Location, &familySize, &residence, &category, &p.IsDifferentlyAbled, &disability,
		&p.IsMinority, &p.IsStudent, &employment, &p.IsGovernmentEmployee, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan user: %w", err)
	}

	p.Sex = domain.Sex(sex)
	p.MaritalStatus = domain.MaritalStatus(marital)
	p.ResidenceType = domain.ResidenceType(residence)
	p.Category = domain.Category(category)
	p.EmploymentStatus = domain.EmploymentStatus(employment)
	if income.Valid {
		v := income.Int64
		p.AnnualIncome = &v
	}
	if familySize.Valid {
		v := int(familySize.Int64)
		p.FamilySize = &v
	}
	if disability.Valid {
		v := int(disability.Int64)
		p.DisabilityPercentage = &v
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
