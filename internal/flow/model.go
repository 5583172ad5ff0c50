// File: internal/flow/model.go
package flow

// LoginRequest is the credential payload from the login modal.
type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// BoutiqueCreateRequest is the multipart shop-creation form. The logo and
// banner arrive as file parts next to these fields.
type BoutiqueCreateRequest struct {
	Nom                   string `form:"nom" binding:"required,max=255"`
	TypeBoutiqueUUID      string `form:"type_boutique_uuid" binding:"required,uuid"`
	Description           string `form:"description" binding:"omitempty,max=2000"`
	PolitiqueRetour       string `form:"politique_retour" binding:"omitempty,max=2000"`
	ConditionsUtilisation string `form:"conditions_utilisation" binding:"omitempty,max=2000"`
	VendeurUUID           string `form:"vendeur_uuid" binding:"omitempty,uuid"`
}
