package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FirmProfile is the law-firm identity and copy used to build generation prompts.
type FirmProfile struct {
	AttorneyName  string         `yaml:"attorney_name"`
	BarNumber     string         `yaml:"bar_number"`
	FirmName      string         `yaml:"firm_name"`
	Address       string         `yaml:"address"`
	Phone         string         `yaml:"phone"`
	Email         string         `yaml:"email"`
	Website       string         `yaml:"website"`
	Experience    string         `yaml:"experience"`
	ServiceArea   string         `yaml:"service_area"`
	Location      string         `yaml:"location"`
	PracticeAreas []PracticeArea `yaml:"practice_areas"`
	Disclaimers   Disclaimers    `yaml:"disclaimers"`
}

type PracticeArea struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Context  string   `yaml:"context"`
	Keywords []string `yaml:"keywords"`
}

// Disclaimers holds the per-kind legal disclaimer text keyed by language code.
type Disclaimers struct {
	Article map[string]string `yaml:"article"`
	Script  map[string]string `yaml:"script"`
	Social  map[string]string `yaml:"social"`
}

// PracticeAreaContext returns the descriptive context for a practice area id,
// or the id itself when it is not a known area.
func (f FirmProfile) PracticeAreaContext(id string) string {
	for _, pa := range f.PracticeAreas {
		if pa.ID == id {
			return pa.Context
		}
	}
	return id
}

// LoadFirmProfile reads a YAML firm profile. Environment references like ${FIRM_PHONE}
// are expanded before parsing. An empty path yields DefaultFirmProfile.
func LoadFirmProfile(path string) (FirmProfile, error) {
	if path == "" {
		return DefaultFirmProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FirmProfile{}, fmt.Errorf("read firm profile: %w", err)
	}

	profile := DefaultFirmProfile()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &profile); err != nil {
		return FirmProfile{}, fmt.Errorf("parse firm profile: %w", err)
	}

	if profile.FirmName == "" {
		return FirmProfile{}, fmt.Errorf("firm profile %s: firm_name is required", path)
	}

	return profile, nil
}

func DefaultFirmProfile() FirmProfile {
	return FirmProfile{
		AttorneyName: "Rozsa Gyene",
		BarNumber:    "208356",
		FirmName:     "Law Offices of Rozsa Gyene",
		Address:      "450 N Brand Blvd, Suite 623, Glendale, California 91203",
		Phone:        "(818) 396-8036",
		Email:        "rozsa@gyenelaw.com",
		Website:      "https://gyenelaw.com",
		Experience:   "25+ years",
		ServiceArea:  "Los Angeles County including Glendale, Burbank, Pasadena",
		Location:     "Los Angeles County, California",
		PracticeAreas: []PracticeArea{
			{
				ID:       "estate-planning",
				Name:     "Estate Planning & Probate",
				Context:  "Estate Planning & Probate - topics about wills, trusts, probate, inheritance, estate administration",
				Keywords: []string{"estate planning", "wills", "trusts", "probate", "inheritance", "beneficiaries"},
			},
			{
				ID:       "trust-litigation",
				Name:     "Trust Litigation",
				Context:  "Trust Litigation - topics about trust disputes, fiduciary duties, trustee removal, breach of trust",
				Keywords: []string{"trust disputes", "trust litigation", "fiduciary duties", "breach of trust", "trustee removal"},
			},
			{
				ID:       "fire-litigation",
				Name:     "Fire Victim Litigation (Eaton Fire, Pacific Palisades)",
				Context:  "Fire Victim Litigation (Eaton Fire, Pacific Palisades) - topics about wildfire claims, property damage, insurance disputes",
				Keywords: []string{"fire victims", "wildfire", "property damage", "insurance claims"},
			},
			{
				ID:       "conservatorship",
				Name:     "Conservatorship/Guardianship",
				Context:  "Conservatorship/Guardianship - topics about conservatorship, guardianship, elder care, incapacity",
				Keywords: []string{"conservatorship", "guardianship", "elder care", "incapacity"},
			},
			{
				ID:       "real-estate",
				Name:     "Real Estate (Dubai properties)",
				Context:  "Real Estate (Dubai properties) - topics about Dubai real estate, international property, investment",
				Keywords: []string{"Dubai real estate", "international property", "property investment"},
			},
		},
		Disclaimers: Disclaimers{
			Article: map[string]string{
				"en": "Disclaimer: This article is for informational purposes only and does not constitute legal advice. For advice specific to your situation, please contact an attorney.",
				"es": "Descargo de responsabilidad: Este artículo es solo para fines informativos y no constituye asesoramiento legal. Para obtener asesoramiento específico sobre su situación, comuníquese con un abogado.",
			},
			Script: map[string]string{
				"en": "Remember, this is general information only. For advice about your specific situation, contact a qualified attorney.",
				"es": "Recuerde, esto es solo información general. Para obtener asesoramiento sobre su situación específica, comuníquese con un abogado calificado.",
			},
			Social: map[string]string{
				"en": "This is not legal advice. Contact us for a consultation.",
				"es": "Esto no es asesoramiento legal. Contáctenos para una consulta.",
			},
		},
	}
}
