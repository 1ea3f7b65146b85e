package profiles

import (
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/internal/users"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
)

// DTO is the flat JSON shape of any profile variant. Variant sections are
// embedded pointers so only the owning variant's fields are emitted.
type DTO struct {
	Kind           enums.ProfileKind    `json:"kind"`
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"user_id"`
	GovernorateID  uint                 `json:"governorate_id"`
	City           string               `json:"city"`
	District       string               `json:"district"`
	StreetAddress  string               `json:"street_address"`
	NationalID     string               `json:"national_id"`
	Gender         *enums.Gender        `json:"gender"`
	BirthDate      *string              `json:"birth_date"`
	MaritalStatus  *enums.MaritalStatus `json:"marital_status"`
	WhatsappNumber *string              `json:"whatsapp_number"`
	Occupation     *string              `json:"occupation"`
	ProfilePicture *string              `json:"profile_picture"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`

	*CitizenDTO
	*ElectoralDTO
	*MemberDTO
}

type CitizenDTO struct {
	PostalCode          string                `json:"postal_code"`
	EducationLevel      *enums.EducationLevel `json:"education_level"`
	ShowPhonePublic     bool                  `json:"show_phone_public"`
	ShowAddressPublic   bool                  `json:"show_address_public"`
	AllowMessages       bool                  `json:"allow_messages"`
	MessagesSent        int                   `json:"messages_sent"`
	ComplaintsSubmitted int                   `json:"complaints_submitted"`
	RatingsGiven        int                   `json:"ratings_given"`
}

type ElectoralDTO struct {
	CouncilType        enums.CouncilType `json:"council_type"`
	PartyID            uint              `json:"party_id"`
	Constituency       string            `json:"constituency"`
	ElectoralNumber    *string           `json:"electoral_number"`
	ElectoralSymbol    *string           `json:"electoral_symbol"`
	Bio                *string           `json:"bio"`
	ElectoralProgram   *string           `json:"electoral_program"`
	Education          *string           `json:"education"`
	Experience         *string           `json:"experience"`
	BannerImage        *string           `json:"banner_image"`
	CampaignSlogan     *string           `json:"campaign_slogan"`
	CampaignWebsite    *string           `json:"campaign_website"`
	RatingAverage      float64           `json:"rating_average"`
	RatingCount        int               `json:"rating_count"`
	MessagesReceived   int               `json:"messages_received"`
	ComplaintsAssigned int               `json:"complaints_assigned"`
	ComplaintsSolved   int               `json:"complaints_solved"`
	IsApproved         *bool             `json:"is_approved,omitempty"`
	ApprovalDate       *time.Time        `json:"approval_date,omitempty"`
}

type MemberDTO struct {
	MembershipStartDate *string `json:"membership_start_date"`
	TermNumber          *int    `json:"term_number"`
	SeatNumber          *string `json:"seat_number"`
	Committees          *string `json:"committees"`
	Positions           *string `json:"positions"`
	Achievements        *string `json:"achievements"`
	OfficeAddress       *string `json:"office_address"`
	OfficePhone         *string `json:"office_phone"`
	OfficeHours         *string `json:"office_hours"`
	ComplaintsHandled   int     `json:"complaints_handled"`
}

// View pairs the identity with its profile for the profile endpoints.
type View struct {
	User    *users.UserDTO `json:"user"`
	Profile *DTO           `json:"profile"`
}

// FromProfile renders any variant.
func FromProfile(p Profile) *DTO {
	if p == nil {
		return nil
	}
	base := p.Common()
	out := &DTO{
		Kind:           p.ProfileKind(),
		ID:             base.ID,
		UserID:         base.UserID,
		GovernorateID:  base.GovernorateID,
		City:           base.City,
		District:       base.District,
		StreetAddress:  base.StreetAddress,
		NationalID:     base.NationalID,
		Gender:         base.Gender,
		BirthDate:      formatDate(base.BirthDate),
		MaritalStatus:  base.MaritalStatus,
		WhatsappNumber: base.WhatsappNumber,
		Occupation:     base.Occupation,
		ProfilePicture: base.ProfilePicture,
		CreatedAt:      base.CreatedAt,
		UpdatedAt:      base.UpdatedAt,
	}

	switch v := p.(type) {
	case *models.CitizenProfile:
		out.CitizenDTO = &CitizenDTO{
			PostalCode:          v.PostalCode,
			EducationLevel:      v.EducationLevel,
			ShowPhonePublic:     v.ShowPhonePublic,
			ShowAddressPublic:   v.ShowAddressPublic,
			AllowMessages:       v.AllowMessages,
			MessagesSent:        v.MessagesSent,
			ComplaintsSubmitted: v.ComplaintsSubmitted,
			RatingsGiven:        v.RatingsGiven,
		}
	case *models.CandidateProfile:
		out.ElectoralDTO = electoralDTO(v.Electoral())
		approved := v.IsApproved
		out.ElectoralDTO.IsApproved = &approved
		out.ElectoralDTO.ApprovalDate = v.ApprovalDate
	case *models.MemberProfile:
		out.ElectoralDTO = electoralDTO(v.Electoral())
		out.MemberDTO = &MemberDTO{
			MembershipStartDate: formatDate(v.MembershipStartDate),
			TermNumber:          v.TermNumber,
			SeatNumber:          v.SeatNumber,
			Committees:          v.Committees,
			Positions:           v.Positions,
			Achievements:        v.Achievements,
			OfficeAddress:       v.OfficeAddress,
			OfficePhone:         v.OfficePhone,
			OfficeHours:         v.OfficeHours,
			ComplaintsHandled:   v.ComplaintsHandled,
		}
	}
	return out
}

func electoralDTO(e *models.ElectoralProfile) *ElectoralDTO {
	return &ElectoralDTO{
		CouncilType:        e.CouncilType,
		PartyID:            e.PartyID,
		Constituency:       e.Constituency,
		ElectoralNumber:    e.ElectoralNumber,
		ElectoralSymbol:    e.ElectoralSymbol,
		Bio:                e.Bio,
		ElectoralProgram:   e.ElectoralProgram,
		Education:          e.Education,
		Experience:         e.Experience,
		BannerImage:        e.BannerImage,
		CampaignSlogan:     e.CampaignSlogan,
		CampaignWebsite:    e.CampaignWebsite,
		RatingAverage:      e.RatingAverage,
		RatingCount:        e.RatingCount,
		MessagesReceived:   e.MessagesReceived,
		ComplaintsAssigned: e.ComplaintsAssigned,
		ComplaintsSolved:   e.ComplaintsSolved,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
