package auth

import (
	"errors"
	"fmt"
	"strings"

	ldap "github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"

	"github.com/snmlog/transferplus/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// LDAPAuthenticator validates credentials against a directory server using
// the bind-search-rebind flow: bind with the service account, locate the
// user entry, then bind again as the user to prove the password.
type LDAPAuthenticator struct {
	cfg config.LDAPConfig
	log *logrus.Logger

	// dial is swappable for tests
	dial func(addr string) (ldapConn, error)
}

// ldapConn is the subset of the directory client the authenticator needs.
type ldapConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// NewLDAPAuthenticator creates a directory-backed authenticator
func NewLDAPAuthenticator(cfg config.LDAPConfig, log *logrus.Logger) *LDAPAuthenticator {
	return &LDAPAuthenticator{
		cfg: cfg,
		log: log,
		dial: func(addr string) (ldapConn, error) {
			return ldap.DialURL(addr)
		},
	}
}

// Authenticate verifies the credentials and resolves the user's role from
// group membership.
func (a *LDAPAuthenticator) Authenticate(username, password string) (*Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	conn, err := a.dial(a.cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("directory unreachable: %w", err)
	}
	defer conn.Close()

	if err := conn.Bind(a.cfg.BindDN, a.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("service bind failed: %w", err)
	}

	entry, err := a.findUser(conn, username)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrInvalidCredentials
	}

	// Rebind as the user to verify the password. ResultCode 49 is the
	// directory's invalid-credentials answer.
	if err := conn.Bind(entry.DN, password); err != nil {
		var ldapErr *ldap.Error
		if errors.As(err, &ldapErr) && ldapErr.ResultCode == ldap.LDAPResultInvalidCredentials {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user bind failed: %w", err)
	}

	groups := entry.GetAttributeValues("memberOf")
	ident := &Identity{
		Username:    username,
		DisplayName: entry.GetAttributeValue("displayName"),
		Email:       entry.GetAttributeValue("mail"),
		Role:        MapRole(groups),
		Groups:      groups,
	}
	a.log.WithFields(logrus.Fields{"user": username, "role": ident.Role}).Info("directory login")
	return ident, nil
}

func (a *LDAPAuthenticator) findUser(conn ldapConn, username string) (*ldap.Entry, error) {
	filter := fmt.Sprintf("(sAMAccountName=%s)", ldap.EscapeFilter(username))
	for _, base := range a.cfg.SearchBases {
		req := ldap.NewSearchRequest(
			base,
			ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 10, false,
			filter,
			[]string{"dn", "displayName", "mail", "memberOf"},
			nil,
		)
		res, err := conn.Search(req)
		if err != nil {
			a.log.WithError(err).WithField("base", base).Warn("directory search failed")
			continue
		}
		if len(res.Entries) > 0 {
			return res.Entries[0], nil
		}
	}
	return nil, nil
}
