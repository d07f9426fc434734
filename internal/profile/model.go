package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrInvalid  = errors.New("invalid profile")
)

type AgeGroup string

const (
	AgeChild  AgeGroup = "CHILD"
	AgeTeen   AgeGroup = "TEEN"
	AgeAdult  AgeGroup = "ADULT"
	AgeSenior AgeGroup = "SENIOR"
)

// AgeGroups is the fixed order used by the feature encoder.
var AgeGroups = []AgeGroup{AgeChild, AgeTeen, AgeAdult, AgeSenior}

type Sex string

const (
	SexFemale      Sex = "FEMALE"
	SexMale        Sex = "MALE"
	SexOther       Sex = "OTHER"
	SexUnspecified Sex = "UNSPECIFIED"
)

type ChronicDisease string

const (
	ChronicAsthma           ChronicDisease = "ASTHMA"
	ChronicCOPD             ChronicDisease = "COPD"
	ChronicDiabetes         ChronicDisease = "DIABETES"
	ChronicHypertension     ChronicDisease = "HYPERTENSION"
	ChronicHeartDisease     ChronicDisease = "HEART_DISEASE"
	ChronicKidneyDisease    ChronicDisease = "KIDNEY_DISEASE"
	ChronicImmunodeficiency ChronicDisease = "IMMUNODEFICIENCY"
)

type Allergy string

const (
	AllergyPollen       Allergy = "POLLEN"
	AllergyDust         Allergy = "DUST"
	AllergyAnimalDander Allergy = "ANIMAL_DANDER"
	AllergyFood         Allergy = "FOOD"
	AllergyDrug         Allergy = "DRUG"
	AllergyInsectSting  Allergy = "INSECT_STING"
)

// UserProfile is the single active profile of a user.
type UserProfile struct {
	UserID          string           `json:"user_id" db:"user_id" validate:"required,max=128"`
	AgeGroup        AgeGroup         `json:"age_group" db:"age_group" validate:"required,oneof=CHILD TEEN ADULT SENIOR"`
	Sex             Sex              `json:"sex" db:"sex" validate:"omitempty,oneof=FEMALE MALE OTHER UNSPECIFIED"`
	ChronicDiseases []ChronicDisease `json:"chronic_diseases" db:"chronic_diseases" validate:"dive,oneof=ASTHMA COPD DIABETES HYPERTENSION HEART_DISEASE KIDNEY_DISEASE IMMUNODEFICIENCY"`
	Allergies       []Allergy        `json:"allergies" db:"allergies" validate:"dive,oneof=POLLEN DUST ANIMAL_DANDER FOOD DRUG INSECT_STING"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

var validate = validator.New()

// Validate checks the enum fields.
func (p UserProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Default is used when a user has not saved a profile yet.
func Default(userID string) UserProfile {
	return UserProfile{
		UserID:          userID,
		AgeGroup:        AgeAdult,
		Sex:             SexUnspecified,
		ChronicDiseases: []ChronicDisease{},
		Allergies:       []Allergy{},
	}
}

func (p UserProfile) HasChronic(d ChronicDisease) bool {
	for _, c := range p.ChronicDiseases {
		if c == d {
			return true
		}
	}
	return false
}

func (p UserProfile) HasAllergy(a Allergy) bool {
	for _, x := range p.Allergies {
		if x == a {
			return true
		}
	}
	return false
}
