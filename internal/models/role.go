package models

// Caller roles resolved by the authorization middleware.
const (
	RoleVolunteer    = "volunteer"
	RoleOrganization = "organization"
)
