package constants

const (
	// ContextKeyUserID is the session and gin context key holding the authenticated user ID.
	ContextKeyUserID = "user_id"

	// ContextKeyOrganization holds the organization loaded by RequireOrganizationAccess.
	ContextKeyOrganization = "organization"

	// ContextKeyMembership holds the caller's membership loaded by RequireOrganizationAccess.
	ContextKeyMembership = "organization_membership"

	// SessionCookieName is the cookie used for authenticated sessions.
	SessionCookieName = "membership_session"

	// MinPasswordLength is the minimum accepted password length on signup.
	MinPasswordLength = 8
)

// Pagination
const (
	MinPage         = 1
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Email templates
const (
	TemplateOrganizationInvitation = "organizations/invitation"
)
