// File: internal/session/model.go
package session

import (
	"time"

	"vitrine_backend/internal/common"
)

// ClientSession is the persisted session record for one gateway client. It is
// the server-side analog of the browser's persisted auth state: the user JSON,
// the bearer token and the remembered email live and die together. The
// temp_token and vendeur_token columns exist only because older login paths
// wrote the credential under those keys; new logins write the canonical token
// column and clear both legacy ones.
type ClientSession struct {
	common.BaseModel
	ClientID          string  `gorm:"type:varchar(64);not null;uniqueIndex"`
	UserJSON          *string `gorm:"column:user_json;type:text"`
	Token             *string `gorm:"type:text"`
	TempToken         *string `gorm:"column:temp_token;type:text"`
	VendeurToken      *string `gorm:"column:vendeur_token;type:text"`
	RememberedEmail   *string `gorm:"type:varchar(255)"`
	ShowLoginModal    bool    `gorm:"not null;default:false"`
	ShowRegisterModal bool    `gorm:"not null;default:false"`
	ExpiresAt         time.Time
}

// TableName specifies the table name for the ClientSession model.
func (ClientSession) TableName() string {
	return "client_sessions"
}

// HasCredential reports whether any token column is populated.
func (cs *ClientSession) HasCredential() bool {
	return deref(cs.Token) != "" || deref(cs.TempToken) != "" || deref(cs.VendeurToken) != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// ModalActionRequest selects a modal visibility transition.
type ModalActionRequest struct {
	Action string `json:"action" binding:"required,oneof=open_login open_register switch_to_login switch_to_register close"`
}

// SessionResponse is the session state returned to the front-end.
type SessionResponse struct {
	IsLoggedIn      bool        `json:"is_logged_in"`
	User            interface{} `json:"user,omitempty"`
	Modals          interface{} `json:"modals"`
	RememberedEmail string      `json:"remembered_email,omitempty"`
}

// SessionSummary is the admin-facing view of an active session row.
type SessionSummary struct {
	ClientID  string    `json:"client_id"`
	UserUUID  string    `json:"user_uuid,omitempty"`
	UserType  string    `json:"user_type,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
