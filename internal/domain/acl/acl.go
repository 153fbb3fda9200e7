package acl

import (
	"fmt"
	"slices"
	"strings"
)

// Privilege is an action that can be granted on a resource.
type Privilege string

// Privilege constants.
const (
	All                  Privilege = "all"
	ReadWrite            Privilege = "read-write"
	ReadWriteUnpublished Privilege = "read-write-unpublished"
	AddComment           Privilege = "add-comment"
	Read                 Privilege = "read"
	ReadProcessed        Privilege = "read-processed"
)

// Privileges lists every privilege in a stable order.
var Privileges = []Privilege{All, ReadWrite, ReadWriteUnpublished, AddComment, Read, ReadProcessed}

var superPrivileges = map[Privilege][]Privilege{
	All:                  nil,
	ReadWrite:            {All},
	ReadWriteUnpublished: {ReadWrite, All},
	AddComment:           {ReadWrite, All},
	Read:                 {ReadWriteUnpublished, ReadWrite, All},
	ReadProcessed:        {Read, ReadWriteUnpublished, ReadWrite, All},
}

// ParsePrivilege resolves a privilege name.
func ParsePrivilege(s string) (Privilege, error) {
	p := Privilege(s)
	if _, ok := superPrivileges[p]; !ok {
		return "", fmt.Errorf("unknown privilege %q", s)
	}
	return p, nil
}

// SuperPrivileges returns the privileges that imply p, excluding p itself.
func (p Privilege) SuperPrivileges() []Privilege {
	return slices.Clone(superPrivileges[p])
}

// PrincipalType separates users from groups.
type PrincipalType uint8

// Principal type constants.
const (
	User PrincipalType = iota
	Group
)

func (t PrincipalType) String() string {
	if t == Group {
		return "group"
	}
	return "user"
}

// Principal is a user or group identified by its qualified name.
type Principal struct {
	Type          PrincipalType
	QualifiedName string
}

// Pseudo principals are users with reserved qualified names.
var (
	PseudoAll           = Principal{Type: User, QualifiedName: "pseudo:all"}
	PseudoAuthenticated = Principal{Type: User, QualifiedName: "pseudo:authenticated"}
	PseudoOwner         = Principal{Type: User, QualifiedName: "pseudo:owner"}
)

// IsPseudo reports whether p is a pseudo principal.
func (p Principal) IsPseudo() bool { return strings.HasPrefix(p.QualifiedName, "pseudo:") }

// NewUser creates a user principal.
func NewUser(name string) Principal { return Principal{Type: User, QualifiedName: name} }

// NewGroup creates a group principal.
func NewGroup(name string) Principal { return Principal{Type: Group, QualifiedName: name} }

// Acl maps privileges to the principals they are granted to.
type Acl struct {
	entries map[Privilege][]Principal
}

// New creates an empty Acl.
func New() *Acl {
	return &Acl{entries: make(map[Privilege][]Principal)}
}

// Grant adds principals to a privilege, ignoring duplicates.
func (a *Acl) Grant(p Privilege, principals ...Principal) *Acl {
	for _, pr := range principals {
		if !slices.Contains(a.entries[p], pr) {
			a.entries[p] = append(a.entries[p], pr)
		}
	}
	return a
}

// Principals returns the principals holding p, optionally filtered by type.
func (a *Acl) Principals(p Privilege, t PrincipalType) []Principal {
	var out []Principal
	for _, pr := range a.entries[p] {
		if pr.Type == t {
			out = append(out, pr)
		}
	}
	return out
}

// Actions returns the granted privileges in the order of Privileges.
func (a *Acl) Actions() []Privilege {
	var out []Privilege
	for _, p := range Privileges {
		if len(a.entries[p]) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// HasPrivilege reports whether principal holds p directly.
func (a *Acl) HasPrivilege(p Privilege, principal Principal) bool {
	return slices.Contains(a.entries[p], principal)
}

// IsEmpty reports whether no privilege is granted.
func (a *Acl) IsEmpty() bool {
	for _, prs := range a.entries {
		if len(prs) > 0 {
			return false
		}
	}
	return true
}

// Equal compares grants irrespective of order.
func (a *Acl) Equal(o *Acl) bool {
	if a == nil || o == nil {
		return a == o
	}
	for _, p := range Privileges {
		x, y := a.entries[p], o.entries[p]
		if len(x) != len(y) {
			return false
		}
		for _, pr := range x {
			if !slices.Contains(y, pr) {
				return false
			}
		}
	}
	return true
}
