package auth

import (
	"fmt"

	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
)

// Action is one entry of the welcome modal.
type Action struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	URL         string `json:"url"`
}

// Welcome is the modal payload returned on login and registration.
type Welcome struct {
	UserName         string         `json:"user_name"`
	UserType         enums.UserType `json:"user_type"`
	UserTypeDisplay  string         `json:"user_type_display"`
	IsNewUser        bool           `json:"is_new_user"`
	WelcomeMessage   string         `json:"welcome_message"`
	AvailableActions []Action       `json:"available_actions"`
}

var commonActions = []Action{
	{ID: "dashboard", Title: "لوحة التحكم", Description: "إدارة حسابك وإعداداتك الشخصية", Icon: "dashboard", URL: "/dashboard/"},
	{ID: "complaint", Title: "تسجيل شكوى", Description: "قدم شكوى أو اقتراح للمسؤولين", Icon: "complaint", URL: "/complaints/new/"},
	{ID: "candidates", Title: "تصفح المرشحين", Description: "استعرض المرشحين وبرامجهم الانتخابية", Icon: "candidates", URL: "/candidates/"},
}

var electoralAction = Action{
	ID:          "profile",
	Title:       "صفحتك العامة",
	Description: "حدّث برنامجك الانتخابي وبيانات التواصل",
	Icon:        "profile",
	URL:         "/profile/",
}

// NewWelcome builds the modal for user.
func NewWelcome(user *models.User, isNew bool) Welcome {
	name := user.FullName()
	message := fmt.Sprintf("أهلاً وسهلاً بك مرة أخرى، %s!", name)
	if isNew {
		message = fmt.Sprintf("مرحباً بك في نائبك، %s! تم إنشاء حسابك بنجاح.", name)
	}

	actions := make([]Action, 0, len(commonActions)+1)
	actions = append(actions, commonActions...)
	if user.UserType.IsCandidate() || user.UserType.IsMember() {
		actions = append(actions, electoralAction)
	}

	return Welcome{
		UserName:         name,
		UserType:         user.UserType,
		UserTypeDisplay:  user.UserType.DisplayAR(),
		IsNewUser:        isNew,
		WelcomeMessage:   message,
		AvailableActions: actions,
	}
}
