package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	"gorm.io/gorm"
)

// ProfileBase holds the columns every profile variant shares.
type ProfileBase struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	GovernorateID  uint                 `gorm:"column:governorate_id;not null"`
	City           string               `gorm:"column:city;not null;default:''"`
	District       string               `gorm:"column:district;not null;default:''"`
	StreetAddress  string               `gorm:"column:street_address;not null;default:''"`
	NationalID     string               `gorm:"column:national_id;type:char(14);not null;uniqueIndex"`
	Gender         *enums.Gender        `gorm:"column:gender;type:text"`
	BirthDate      *time.Time           `gorm:"column:birth_date;type:date"`
	MaritalStatus  *enums.MaritalStatus `gorm:"column:marital_status;type:text"`
	WhatsappNumber *string              `gorm:"column:whatsapp_number"`
	Occupation     *string              `gorm:"column:occupation"`
	ProfilePicture *string              `gorm:"column:profile_picture"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *ProfileBase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Common exposes the shared columns of any variant.
func (p *ProfileBase) Common() *ProfileBase { return p }

// CitizenProfile carries the demographic record and privacy toggles of a citizen.
type CitizenProfile struct {
	ProfileBase
	PostalCode          string                `gorm:"column:postal_code;not null;default:''"`
	EducationLevel      *enums.EducationLevel `gorm:"column:education_level;type:text"`
	ShowPhonePublic     bool                  `gorm:"column:show_phone_public;not null"`
	ShowAddressPublic   bool                  `gorm:"column:show_address_public;not null"`
	AllowMessages       bool                  `gorm:"column:allow_messages;not null"`
	MessagesSent        int                   `gorm:"column:messages_sent;not null;default:0"`
	ComplaintsSubmitted int                   `gorm:"column:complaints_submitted;not null;default:0"`
	RatingsGiven        int                   `gorm:"column:ratings_given;not null;default:0"`
}

func (CitizenProfile) TableName() string { return "citizen_profiles" }

func (*CitizenProfile) ProfileKind() enums.ProfileKind { return enums.ProfileKindCitizen }

// ElectoralProfile is shared by candidates and sitting members.
type ElectoralProfile struct {
	CouncilType        enums.CouncilType `gorm:"column:council_type;type:text;not null"`
	PartyID            uint              `gorm:"column:party_id;not null"`
	Constituency       string            `gorm:"column:constituency;not null"`
	ElectoralNumber    *string           `gorm:"column:electoral_number"`
	ElectoralSymbol    *string           `gorm:"column:electoral_symbol"`
	Bio                *string           `gorm:"column:bio"`
	ElectoralProgram   *string           `gorm:"column:electoral_program"`
	Education          *string           `gorm:"column:education"`
	Experience         *string           `gorm:"column:experience"`
	BannerImage        *string           `gorm:"column:banner_image"`
	CampaignSlogan     *string           `gorm:"column:campaign_slogan"`
	CampaignWebsite    *string           `gorm:"column:campaign_website"`
	RatingAverage      float64           `gorm:"column:rating_average;not null;default:0"`
	RatingCount        int               `gorm:"column:rating_count;not null;default:0"`
	MessagesReceived   int               `gorm:"column:messages_received;not null;default:0"`
	ComplaintsAssigned int               `gorm:"column:complaints_assigned;not null;default:0"`
	ComplaintsSolved   int               `gorm:"column:complaints_solved;not null;default:0"`
}

// CandidateProfile is owned by parliament and senate candidates.
type CandidateProfile struct {
	ProfileBase
	ElectoralProfile
	IsApproved   bool       `gorm:"column:is_approved;not null"`
	ApprovalDate *time.Time `gorm:"column:approval_date"`
}

func (CandidateProfile) TableName() string { return "candidate_profiles" }

func (*CandidateProfile) ProfileKind() enums.ProfileKind { return enums.ProfileKindCandidate }

// Electoral exposes the candidate and member columns.
func (p *CandidateProfile) Electoral() *ElectoralProfile { return &p.ElectoralProfile }

// MemberProfile is owned by sitting parliament and senate members.
type MemberProfile struct {
	ProfileBase
	ElectoralProfile
	MembershipStartDate *time.Time `gorm:"column:membership_start_date;type:date"`
	TermNumber          *int       `gorm:"column:term_number"`
	SeatNumber          *string    `gorm:"column:seat_number"`
	Committees          *string    `gorm:"column:committees"`
	Positions           *string    `gorm:"column:positions"`
	Achievements        *string    `gorm:"column:achievements"`
	OfficeAddress       *string    `gorm:"column:office_address"`
	OfficePhone         *string    `gorm:"column:office_phone"`
	OfficeHours         *string    `gorm:"column:office_hours"`
	ComplaintsHandled   int        `gorm:"column:complaints_handled;not null;default:0"`
}

func (MemberProfile) TableName() string { return "member_profiles" }

func (*MemberProfile) ProfileKind() enums.ProfileKind { return enums.ProfileKindMember }

func (p *MemberProfile) Electoral() *ElectoralProfile { return &p.ElectoralProfile }
