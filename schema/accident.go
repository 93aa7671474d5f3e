package schema

import (
	"time"

	"github.com/mbolis/patrol-report/check"
	"github.com/mbolis/patrol-report/model"
)

var (
	minAge = 0.0
	maxAge = 120.0
)

func notFuture(message string) CustomFunc {
	return func(value any, _ model.FormData) string {
		s, _ := value.(string)
		if !check.DateNotFuture(s, time.Now()) {
			return message
		}
		return ""
	}
}

func ageInRange(value any, _ model.FormData) string {
	s, _ := value.(string)
	if s == "" || check.NumberRange(s, &minAge, &maxAge) {
		return ""
	}
	return "Age must be between 0 and 120"
}

// AccidentReport is the ski patrol accident report form.
var AccidentReport = &Schema{
	Title: "Ski Patrol Accident Report",
	Sections: []Section{
		{
			ID:         "incident-details",
			Title:      "Incident Details",
			PrintTitle: "INCIDENT DETAILS",
			Fields: []Field{
				{Name: "reportId", Type: Readonly, Label: "Report ID", Printable: true},
				{
					Name: "location", Type: Text, Label: "Location",
					Placeholder: "e.g., Main Street Run, Lift 3",
					MaxLength:   100, Printable: true,
					Default:    "Chicopee Ski Club",
					Validation: &Validation{Type: RuleRequired, Message: "Location is required"},
				},
				{
					Name: "dateOfIncident", Type: Date, Label: "Date of Incident",
					Printable: true, DefaultToday: true,
					Validation: &Validation{
						Type:   RuleCustom,
						Custom: notFuture("Date of incident cannot be in the future"),
					},
				},
				{Name: "timeOfIncident", Type: Time, Label: "Time of Incident", RequiredByPatient: true, Printable: true},
			},
		},
		{
			ID:         "patient-info",
			Title:      "Patient Information",
			PrintTitle: "PATIENT INFORMATION",
			Fields: []Field{
				{Name: "patientName", Type: Text, Label: "Patient Name", Placeholder: "Full name", RequiredByPatient: true, MaxLength: 100, Printable: true},
				{
					Name: "patientBirthdate", Type: Date, Label: "Date of Birth",
					RequiredByPatient: true, Printable: true,
					Validation: &Validation{
						Type:   RuleCustom,
						Custom: notFuture("Date of birth cannot be in the future"),
					},
				},
				{
					Name: "patientAge", Type: Number, Label: "Age", Placeholder: "Age",
					RequiredByPatient: true, Printable: true, Min: &minAge, Max: &maxAge,
					Validation: &Validation{Type: RuleCustom, Custom: ageInRange},
				},
				{
					Name: "patientPhoneNumber", Type: Text, Label: "Phone Number",
					Placeholder: "(555) 123-4567", RequiredByPatient: true, MaxLength: 20, Printable: true,
					Validation: &Validation{Type: RulePhone, Message: "Please enter a valid phone number"},
				},
				{
					Name: "patientGender", Type: Radio, Label: "Gender", RequiredByPatient: true, Printable: true,
					Options: []Option{
						{Value: "male", Label: "Male"},
						{Value: "female", Label: "Female"},
						{Value: "non-binary", Label: "Non-Binary"},
					},
				},
				{Name: "patientWeight", Type: Number, Label: "Weight (lbs)", Placeholder: "Weight", RequiredByPatient: true, Printable: true},
				{Name: "patientHeight", Type: Text, Label: "Height", Placeholder: `e.g., 5'10"`, RequiredByPatient: true, MaxLength: 20, Printable: true},
				{
					Name: "guestType", Type: Radio, Label: "Guest Type", RequiredByPatient: true, Printable: true,
					Options: []Option{
						{Value: "day-ticket", Label: "Day Ticket"},
						{Value: "season-pass", Label: "Season Pass"},
						{Value: "card-holder", Label: "Card Holder"},
						{Value: "staff", Label: "Staff"},
						{Value: "staff-off-duty", Label: "Staff (Off Duty)"},
						{Value: "other", Label: "Other"},
					},
				},
				{
					Name: "patientDescription", Type: TextArea, Label: "Patient Description",
					Placeholder: "Patient description of the incident.", RequiredByPatient: true,
					MaxLength: 500, Rows: 4, Printable: true, FullWidth: true,
				},
				{
					Name: "signatureType", Type: Radio, Label: "Signed By", RequiredByPatient: true, Printable: true,
					Options: []Option{
						{Value: "patient", Label: "Patient"},
						{Value: "guardian", Label: "Guardian"},
						{Value: "other", Label: "Other"},
					},
				},
				{Name: "patientSignature", Type: Signature, Label: "Signature", RequiredByPatient: true, Printable: true},
			},
		},
		{
			ID:         "injuries",
			Title:      "Patient Injuries",
			PrintTitle: "INJURIES & TREATMENT",
			Fields: []Field{
				{
					Name: "injuryTypes", Type: Checkbox, Label: "Injury Type(s)", Printable: true,
					Options: []Option{
						{Value: "fracture", Label: "Fracture"},
						{Value: "sprain", Label: "Sprain/Strain"},
						{Value: "laceration", Label: "Laceration"},
						{Value: "head", Label: "Head Injury"},
						{Value: "other", Label: "Other"},
					},
				},
				{Name: "bodyPart", Type: Text, Label: "Body Part Affected", Placeholder: "e.g., Left knee, Right wrist", MaxLength: 100, Printable: true},
				{
					Name: "injurySeverity", Type: Radio, Label: "Severity", Printable: true,
					Options: []Option{
						{Value: "minor", Label: "Minor"},
						{Value: "moderate", Label: "Moderate"},
						{Value: "severe", Label: "Severe"},
					},
				},
				{
					Name: "injuryDescription", Type: TextArea, Label: "Injury Description",
					Placeholder:       "Detailed description of the injury and how it occurred...",
					RequiredByPatient: true, MaxLength: 500, Rows: 4, Printable: true, FullWidth: true,
				},
				{
					Name: "treatmentProvided", Type: TextArea, Label: "Treatment Provided",
					Placeholder: "First aid and treatment provided...",
					MaxLength:   500, Rows: 3, Printable: true, FullWidth: true,
				},
			},
		},
		{
			ID:         "conditions",
			Title:      "Ski Conditions",
			PrintTitle: "SKI CONDITIONS",
			Fields: []Field{
				{
					Name: "weatherConditions", Type: Radio, Label: "Weather", Printable: true,
					Options: []Option{
						{Value: "clear", Label: "Clear"},
						{Value: "cloudy", Label: "Cloudy"},
						{Value: "snowing", Label: "Snowing"},
						{Value: "fog", Label: "Fog"},
					},
				},
				{
					Name: "snowConditions", Type: Radio, Label: "Snow Conditions", Printable: true,
					Options: []Option{
						{Value: "powder", Label: "Powder"},
						{Value: "packed", Label: "Packed"},
						{Value: "icy", Label: "Icy"},
						{Value: "slushy", Label: "Slushy"},
					},
				},
				{
					Name: "visibility", Type: Radio, Label: "Visibility", Printable: true,
					Options: []Option{
						{Value: "excellent", Label: "Excellent"},
						{Value: "good", Label: "Good"},
						{Value: "fair", Label: "Fair"},
						{Value: "poor", Label: "Poor"},
					},
				},
				{
					Name: "trailDifficulty", Type: Radio, Label: "Trail Difficulty", Printable: true,
					Options: []Option{
						{Value: "green", Label: "Green Circle (Beginner)"},
						{Value: "blue", Label: "Blue Square (Intermediate)"},
						{Value: "black", Label: "Black Diamond (Advanced)"},
						{Value: "double-black", Label: "Double Black Diamond (Expert)"},
					},
				},
			},
		},
		{
			ID:         "patroller-info",
			Title:      "Patroller Information",
			PrintTitle: "PATROLLER SIGNATURE",
			Fields: []Field{
				{Name: "patrollerName", Type: Text, Label: "Patroller Name", Placeholder: "Full name", MaxLength: 100, Printable: true},
				{Name: "signature", Type: Signature, Label: "Signature", Printable: true, FullWidth: true},
				{Name: "signatureDate", Type: Readonly, Label: "Signature Date", Printable: true, StampedBy: "signature"},
			},
		},
	},
}
