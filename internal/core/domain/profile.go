package domain

import (
	"errors"
	"fmt"
	"time"
)

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "Single"
	MaritalMarried  MaritalStatus = "Married"
	MaritalDivorced MaritalStatus = "Divorced"
	MaritalWidowed  MaritalStatus = "Widowed"
)

type ResidenceType string

const (
	ResidenceUrban ResidenceType = "Urban"
	ResidenceRural ResidenceType = "Rural"
)

type Category string

const (
	CategoryGeneral Category = "General"
	CategoryOBC     Category = "OBC"
	CategoryPVTG    Category = "PVTG"
	CategorySC      Category = "SC"
	CategoryST      Category = "ST"
)

type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "Employed"
	EmploymentUnemployed   EmploymentStatus = "Unemployed"
	EmploymentSelfEmployed EmploymentStatus = "Self-Employed/ Entrepreneur"
	EmploymentFarmer       EmploymentStatus = "Farmer"
)

// Profile is the citizen's self-declared data. Name, email, phone, age and
// sex are fixed at registration; the rest is editable.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Age         int    `json:"age"`
	Sex         Sex    `json:"sex"`

	MaritalStatus        MaritalStatus    `json:"maritalStatus,omitempty"`
	Address              string           `json:"address,omitempty"`
	FatherName           string           `json:"fatherName,omitempty"`
	MotherName           string           `json:"motherName,omitempty"`
	AnnualIncome         *int64           `json:"annualIncome,omitempty"`
	Location             string           `json:"location,omitempty"`
	FamilySize           *int             `json:"familySize,omitempty"`
	ResidenceType        ResidenceType    `json:"residenceType,omitempty"`
	Category             Category         `json:"category,omitempty"`
	IsDifferentlyAbled   bool             `json:"isDifferentlyAbled"`
	DisabilityPercentage *int             `json:"disabilityPercentage,omitempty"`
	IsMinority           bool             `json:"isMinority"`
	IsStudent            bool             `json:"isStudent"`
	EmploymentStatus     EmploymentStatus `json:"employmentStatus,omitempty"`
	IsGovernmentEmployee bool             `json:"isGovernmentEmployee"`

	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks enumerations and the disability invariant. Empty
// enumerations are allowed because most fields are filled in after signup.
func (p Profile) Validate() error {
	var errs []error
	if p.Age < 0 || p.Age > 150 {
		errs = append(errs, fmt.Errorf("age %d out of range", p.Age))
	}
	if !oneOf(p.Sex, "", SexMale, SexFemale, SexOther) {
		errs = append(errs, fmt.Errorf("unknown sex %q", p.Sex))
	}
	if !oneOf(p.MaritalStatus, "", MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed) {
		errs = append(errs, fmt.Errorf("unknown marital status %q", p.MaritalStatus))
	}
	if !oneOf(p.ResidenceType, "", ResidenceUrban, ResidenceRural) {
		errs = append(errs, fmt.Errorf("unknown residence type %q", p.ResidenceType))
	}
	if !oneOf(p.Category, "", CategoryGeneral, CategoryOBC, CategoryPVTG, CategorySC, CategoryST) {
		errs = append(errs, fmt.Errorf("unknown category %q", p.Category))
	}
	if !oneOf(p.EmploymentStatus, "", EmploymentEmployed, EmploymentUnemployed, EmploymentSelfEmployed, EmploymentFarmer) {
		errs = append(errs, fmt.Errorf("unknown employment status %q", p.EmploymentStatus))
	}
	if p.AnnualIncome != nil && *p.AnnualIncome < 0 {
		errs = append(errs, errors.New("annual income must not be negative"))
	}
	if p.FamilySize != nil && *p.FamilySize < 1 {
		errs = append(errs, errors.New("family size must be at least 1"))
	}
	if p.IsDifferentlyAbled {
		switch {
		case p.DisabilityPercentage == nil:
			errs = append(errs, errors.New("disability percentage is required when differently abled"))
		case *p.DisabilityPercentage < 0 || *p.DisabilityPercentage > 100:
			errs = append(errs, fmt.Errorf("disability percentage %d out of range 0-100", *p.DisabilityPercentage))
		}
	} else if p.DisabilityPercentage != nil {
		errs = append(errs, errors.New("disability percentage set without differently abled flag"))
	}
	if len(errs) == 0 {
		return nil
	}
	return WrapError(ErrInvalidInput, "validate profile", errors.Join(errs...))
}

// Optional numeric fields that an update can reset to absent.
const (
	FieldAnnualIncome         = "annualIncome"
	FieldFamilySize           = "familySize"
	FieldDisabilityPercentage = "disabilityPercentage"
)

// ProfileUpdate carries a partial update; nil fields are left untouched.
// JSON null cannot express removal, so optional numbers are reset by naming
// them in Clear.
type ProfileUpdate struct {
	MaritalStatus        *MaritalStatus    `json:"maritalStatus"`
	Address              *string           `json:"address"`
	FatherName           *string           `json:"fatherName"`
	MotherName           *string           `json:"motherName"`
	AnnualIncome         *int64            `json:"annualIncome"`
	Location             *string           `json:"location"`
	FamilySize           *int              `json:"familySize"`
	ResidenceType        *ResidenceType    `json:"residenceType"`
	Category             *Category         `json:"category"`
	IsDifferentlyAbled   *bool             `json:"isDifferentlyAbled"`
	DisabilityPercentage *int              `json:"disabilityPercentage"`
	IsMinority           *bool             `json:"isMinority"`
	IsStudent            *bool             `json:"isStudent"`
	EmploymentStatus     *EmploymentStatus `json:"employmentStatus"`
	IsGovernmentEmployee *bool             `json:"isGovernmentEmployee"`

	Clear []string `json:"clear,omitempty" validate:"dive,oneof=annualIncome familySize disabilityPercentage"`
}

// Apply returns a copy of p with the update merged in. Clear wins over a
// value set in the same update. Clearing the differently-abled flag also
// clears the percentage.
func (u ProfileUpdate) Apply(p Profile) Profile {
	setIf(&p.MaritalStatus, u.MaritalStatus)
	setIf(&p.Address, u.Address)
	setIf(&p.FatherName, u.FatherName)
	setIf(&p.MotherName, u.MotherName)
	setIf(&p.Location, u.Location)
	setIf(&p.ResidenceType, u.ResidenceType)
	setIf(&p.Category, u.Category)
	setIf(&p.IsDifferentlyAbled, u.IsDifferentlyAbled)
	setIf(&p.IsMinority, u.IsMinority)
	setIf(&p.IsStudent, u.IsStudent)
	setIf(&p.EmploymentStatus, u.EmploymentStatus)
	setIf(&p.IsGovernmentEmployee, u.IsGovernmentEmployee)
	if u.AnnualIncome != nil {
		v := *u.AnnualIncome
		p.AnnualIncome = &v
	}
	if u.FamilySize != nil {
		v := *u.FamilySize
		p.FamilySize = &v
	}
	if u.DisabilityPercentage != nil {
		v := *u.DisabilityPercentage
		p.DisabilityPercentage = &v
	}
	for _, field := range u.Clear {
		switch field {
		case FieldAnnualIncome:
			p.AnnualIncome = nil
		case FieldFamilySize:
			p.FamilySize = nil
		case FieldDisabilityPercentage:
			p.DisabilityPercentage = nil
		}
	}
	if !p.IsDifferentlyAbled {
		p.DisabilityPercentage = nil
	}
	return p
}

// Account is a profile together with its stored password hash.
type Account struct {
	Profile      Profile
	PasswordHash string
}

type Registration struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7,max=20"`
	Age         int    `json:"age" validate:"gte=0,lte=150"`
	Sex         Sex    `json:"sex" validate:"required,oneof=Male Female Other"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
