package profiles

import (
	"strings"
	"time"

	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/security"
)

const dateLayout = "2006-01-02"

const (
	msgRequired       = "هذا الحقل مطلوب"
	msgInvalidChoice  = "قيمة غير صالحة"
	msgInvalidDate    = "تاريخ غير صالح، استخدم الصيغة YYYY-MM-DD"
	msgPositive       = "يجب أن تكون القيمة أكبر من صفر"
	msgNoGovernorate  = "المحافظة غير موجودة"
	msgNoParty        = "الحزب غير موجود"
	msgInvalidProfile = "بيانات الملف الشخصي غير صالحة"
	msgInvalidNID     = "الرقم القومي يجب أن يتكون من 14 رقماً"
)

// Fields is the profile portion of a registration or update payload. Nil
// pointers mean "not provided". Fields that do not apply to the caller's
// variant are ignored.
type Fields struct {
	GovernorateID  *uint   `json:"governorate_id,omitempty"`
	City           *string `json:"city,omitempty"`
	District       *string `json:"district,omitempty"`
	StreetAddress  *string `json:"street_address,omitempty"`
	NationalID     *string `json:"national_id,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	BirthDate      *string `json:"birth_date,omitempty"`
	MaritalStatus  *string `json:"marital_status,omitempty"`
	WhatsappNumber *string `json:"whatsapp_number,omitempty"`
	Occupation     *string `json:"occupation,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`

	PostalCode        *string `json:"postal_code,omitempty"`
	EducationLevel    *string `json:"education_level,omitempty"`
	ShowPhonePublic   *bool   `json:"show_phone_public,omitempty"`
	ShowAddressPublic *bool   `json:"show_address_public,omitempty"`
	AllowMessages     *bool   `json:"allow_messages,omitempty"`

	PartyID          *uint   `json:"party_id,omitempty"`
	Constituency     *string `json:"constituency,omitempty"`
	ElectoralNumber  *string `json:"electoral_number,omitempty"`
	ElectoralSymbol  *string `json:"electoral_symbol,omitempty"`
	Bio              *string `json:"bio,omitempty"`
	ElectoralProgram *string `json:"electoral_program,omitempty"`
	Education        *string `json:"education,omitempty"`
	Experience       *string `json:"experience,omitempty"`
	BannerImage      *string `json:"banner_image,omitempty"`
	CampaignSlogan   *string `json:"campaign_slogan,omitempty"`
	CampaignWebsite  *string `json:"campaign_website,omitempty"`

	MembershipStartDate *string `json:"membership_start_date,omitempty"`
	TermNumber          *int    `json:"term_number,omitempty"`
	SeatNumber          *string `json:"seat_number,omitempty"`
	Committees          *string `json:"committees,omitempty"`
	Positions           *string `json:"positions,omitempty"`
	Achievements        *string `json:"achievements,omitempty"`
	OfficeAddress       *string `json:"office_address,omitempty"`
	OfficePhone         *string `json:"office_phone,omitempty"`
	OfficeHours         *string `json:"office_hours,omitempty"`
}

// fieldErrors maps a JSON field name to an Arabic message.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeProfileValidation, msgInvalidProfile).
		WithDetails(map[string]any{"fields": map[string]string(f)})
}

func invalidNationalID() error {
	return pkgerrors.New(pkgerrors.CodeInvalidNationalID, msgInvalidNID).
		WithDetails(map[string]any{"field": "national_id"})
}

// apply copies the provided fields onto p. A malformed national id is
// reported on its own; every other problem is collected.
func (f Fields) apply(p Profile) error {
	errs := fieldErrors{}
	base := p.Common()

	if f.NationalID != nil {
		nid := strings.TrimSpace(*f.NationalID)
		if !security.IsValidNationalID(nid) {
			return invalidNationalID()
		}
		base.NationalID = nid
	}
	if f.GovernorateID != nil {
		base.GovernorateID = *f.GovernorateID
	}
	setTrimmed(&base.City, f.City)
	setTrimmed(&base.District, f.District)
	setTrimmed(&base.StreetAddress, f.StreetAddress)
	setOptional(&base.WhatsappNumber, f.WhatsappNumber)
	setOptional(&base.Occupation, f.Occupation)
	setOptional(&base.ProfilePicture, f.ProfilePicture)

	if f.Gender != nil {
		if value := strings.TrimSpace(*f.Gender); value == "" {
			base.Gender = nil
		} else if g, err := enums.ParseGender(value); err != nil {
			errs.add("gender", msgInvalidChoice)
		} else {
			base.Gender = &g
		}
	}
	if f.MaritalStatus != nil {
		if value := strings.TrimSpace(*f.MaritalStatus); value == "" {
			base.MaritalStatus = nil
		} else if m, err := enums.ParseMaritalStatus(value); err != nil {
			errs.add("marital_status", msgInvalidChoice)
		} else {
			base.MaritalStatus = &m
		}
	}
	setDate(&base.BirthDate, f.BirthDate, "birth_date", errs)

	switch v := p.(type) {
	case *models.CitizenProfile:
		f.applyCitizen(v, errs)
	case *models.CandidateProfile:
		f.applyElectoral(v.Electoral())
	case *models.MemberProfile:
		f.applyElectoral(v.Electoral())
		f.applyMember(v, errs)
	}
	return errs.err()
}

func (f Fields) applyCitizen(p *models.CitizenProfile, errs fieldErrors) {
	setTrimmed(&p.PostalCode, f.PostalCode)
	if f.EducationLevel != nil {
		if value := strings.TrimSpace(*f.EducationLevel); value == "" {
			p.EducationLevel = nil
		} else if e, err := enums.ParseEducationLevel(value); err != nil {
			errs.add("education_level", msgInvalidChoice)
		} else {
			p.EducationLevel = &e
		}
	}
	if f.ShowPhonePublic != nil {
		p.ShowPhonePublic = *f.ShowPhonePublic
	}
	if f.ShowAddressPublic != nil {
		p.ShowAddressPublic = *f.ShowAddressPublic
	}
	if f.AllowMessages != nil {
		p.AllowMessages = *f.AllowMessages
	}
}

func (f Fields) applyElectoral(e *models.ElectoralProfile) {
	if f.PartyID != nil {
		e.PartyID = *f.PartyID
	}
	setTrimmed(&e.Constituency, f.Constituency)
	setOptional(&e.ElectoralNumber, f.ElectoralNumber)
	setOptional(&e.ElectoralSymbol, f.ElectoralSymbol)
	setOptional(&e.Bio, f.Bio)
	setOptional(&e.ElectoralProgram, f.ElectoralProgram)
	setOptional(&e.Education, f.Education)
	setOptional(&e.Experience, f.Experience)
	setOptional(&e.BannerImage, f.BannerImage)
	setOptional(&e.CampaignSlogan, f.CampaignSlogan)
	setOptional(&e.CampaignWebsite, f.CampaignWebsite)
}

func (f Fields) applyMember(m *models.MemberProfile, errs fieldErrors) {
	setDate(&m.MembershipStartDate, f.MembershipStartDate, "membership_start_date", errs)
	if f.TermNumber != nil {
		if *f.TermNumber <= 0 {
			errs.add("term_number", msgPositive)
		} else {
			term := *f.TermNumber
			m.TermNumber = &term
		}
	}
	setOptional(&m.SeatNumber, f.SeatNumber)
	setOptional(&m.Committees, f.Committees)
	setOptional(&m.Positions, f.Positions)
	setOptional(&m.Achievements, f.Achievements)
	setOptional(&m.OfficeAddress, f.OfficeAddress)
	setOptional(&m.OfficePhone, f.OfficePhone)
	setOptional(&m.OfficeHours, f.OfficeHours)
}

// requiredMissing lists the mandatory columns p still lacks.
func requiredMissing(p Profile) fieldErrors {
	errs := fieldErrors{}
	base := p.Common()
	if base.NationalID == "" {
		errs.add("national_id", msgRequired)
	}
	if base.GovernorateID == 0 {
		errs.add("governorate_id", msgRequired)
	}
	if e, ok := p.(electoral); ok {
		if e.Electoral().PartyID == 0 {
			errs.add("party_id", msgRequired)
		}
		if e.Electoral().Constituency == "" {
			errs.add("constituency", msgRequired)
		}
	}
	return errs
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// setOptional stores a trimmed copy, clearing the column on an empty string.
func setOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	value := strings.TrimSpace(*src)
	if value == "" {
		*dst = nil
		return
	}
	*dst = &value
}

func setDate(dst **time.Time, src *string, field string, errs fieldErrors) {
	if src == nil {
		return
	}
	value := strings.TrimSpace(*src)
	if value == "" {
		*dst = nil
		return
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		errs.add(field, msgInvalidDate)
		return
	}
	*dst = &parsed
}
