package auth

import (
	"strings"

	"github.com/snmlog/transferplus/internal/models"
)

// Identity is the result of a successful authentication, before role-based
// filtering happens.
type Identity struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Groups      []string `json:"-"`
}

// Directory groups whose membership grants a role. Matching is on the CN of
// each memberOf entry, case-insensitively.
var (
	adminGroups = []string{"logistics-admins", "transfer-admins", "ti-admins"}

	roleGroups = map[string]string{
		"desembarque": models.RoleDesembarque,
		"conferente":  models.RoleConferente,
		"conferencia": models.RoleConferente,
		"embarque":    models.RoleEmbarque,
	}
)

// allowedPaths gates the API surface per role. Admin sees everything.
var allowedPaths = map[string][]string{
	models.RoleAdmin:       {"*"},
	models.RoleDesembarque: {"/desembarque", "/dashboard"},
	models.RoleConferente:  {"/conferencia", "/quarentena", "/lom", "/dashboard"},
	models.RoleEmbarque:    {"/embarque", "/dashboard"},
	models.RoleNoAccess:    {},
}

// GroupCN extracts the CN from a distinguished name like
// "CN=conferente,OU=Groups,DC=corp,DC=example". Empty when there is none.
func GroupCN(dn string) string {
	for _, part := range strings.Split(dn, ",") {
		part = strings.TrimSpace(part)
		if len(part) > 3 && strings.EqualFold(part[:3], "CN=") {
			return part[3:]
		}
	}
	return ""
}

// MapRole resolves a role from directory group membership. Admin groups win;
// otherwise the first matching functional group decides; users in no known
// group get NO_ACCESS.
func MapRole(memberOf []string) string {
	cns := make([]string, 0, len(memberOf))
	for _, dn := range memberOf {
		if cn := GroupCN(dn); cn != "" {
			cns = append(cns, strings.ToLower(cn))
		}
	}

	for _, cn := range cns {
		for _, admin := range adminGroups {
			if cn == admin {
				return models.RoleAdmin
			}
		}
	}
	for _, cn := range cns {
		if role, ok := roleGroups[cn]; ok {
			return role
		}
	}
	return models.RoleNoAccess
}

// AllowedPaths returns the path prefixes a role may reach.
func AllowedPaths(role string) []string {
	return allowedPaths[role]
}

// CanAccess reports whether a role may reach the given path prefix.
func CanAccess(role, path string) bool {
	for _, p := range allowedPaths[role] {
		if p == "*" || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
