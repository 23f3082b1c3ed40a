package convention

// ModificationRequestedPayload is carried by ConventionStatusRequiresModification
// events: the reset convention, the free-text justification, and the roles
// that must sign again once the document is edited.
type ModificationRequestedPayload struct {
	Convention    Convention `json:"convention"`
	Justification string     `json:"justification"`
	Roles         []Role     `json:"roles"`
}
