package auth

import (
	"testing"

	"github.com/snmlog/transferplus/internal/models"
)

func TestGroupCN(t *testing.T) {
	tests := []struct {
		dn   string
		want string
	}{
		{"CN=conferente,OU=Groups,DC=corp,DC=example", "conferente"},
		{"cn=Embarque,ou=Ships,dc=corp", "Embarque"},
		{"OU=Groups,DC=corp", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := GroupCN(tt.dn); got != tt.want {
			t.Errorf("GroupCN(%q) = %q, want %q", tt.dn, got, tt.want)
		}
	}
}

func TestMapRole(t *testing.T) {
	tests := []struct {
		name     string
		memberOf []string
		want     string
	}{
		{
			name:     "admin group wins over functional groups",
			memberOf: []string{"CN=embarque,OU=G,DC=x", "CN=Logistics-Admins,OU=G,DC=x"},
			want:     models.RoleAdmin,
		},
		{
			name:     "conferencia alias maps to conferente",
			memberOf: []string{"CN=Conferencia,OU=G,DC=x"},
			want:     models.RoleConferente,
		},
		{
			name:     "desembarque",
			memberOf: []string{"CN=desembarque,OU=G,DC=x"},
			want:     models.RoleDesembarque,
		},
		{
			name:     "unknown groups give no access",
			memberOf: []string{"CN=finance,OU=G,DC=x"},
			want:     models.RoleNoAccess,
		},
		{
			name:     "no groups give no access",
			memberOf: nil,
			want:     models.RoleNoAccess,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapRole(tt.memberOf); got != tt.want {
				t.Errorf("MapRole = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanAccess(t *testing.T) {
	if !CanAccess(models.RoleAdmin, "/embarque/confirm") {
		t.Error("admin should reach every path")
	}
	if !CanAccess(models.RoleConferente, "/quarentena/update") {
		t.Error("conferente should reach quarantine paths")
	}
	if CanAccess(models.RoleDesembarque, "/embarque/confirm") {
		t.Error("desembarque must not reach embarque paths")
	}
	if CanAccess(models.RoleNoAccess, "/dashboard") {
		t.Error("NO_ACCESS must reach nothing")
	}
}
