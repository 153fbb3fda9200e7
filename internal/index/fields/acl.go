package fields

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/index/document"
)

// AclInheritedFromField holds the id of the resource an acl is inherited from,
// or property.NoID for resources with their own acl.
const AclInheritedFromField = "aclInheritedFrom"

const (
	aceMarker   = "acl_"
	userSuffix  = "_u"
	groupSuffix = "_g"
)

// AclFields encodes acl entries.
type AclFields struct {
	codec *Codec
}

// NewAclFields creates AclFields over codec.
func NewAclFields(codec *Codec) *AclFields {
	return &AclFields{codec: codec}
}

// AceFieldName names the field listing the principals of type t holding p.
func AceFieldName(p acl.Privilege, t acl.PrincipalType) string {
	if t == acl.Group {
		return aceMarker + string(p) + groupSuffix
	}
	return aceMarker + string(p) + userSuffix
}

// ParseAceFieldName reverses AceFieldName.
func ParseAceFieldName(name string) (acl.Privilege, acl.PrincipalType, bool) {
	rest, ok := strings.CutPrefix(name, aceMarker)
	if !ok {
		return "", 0, false
	}
	t := acl.User
	switch {
	case strings.HasSuffix(rest, userSuffix):
		rest = strings.TrimSuffix(rest, userSuffix)
	case strings.HasSuffix(rest, groupSuffix):
		t = acl.Group
		rest = strings.TrimSuffix(rest, groupSuffix)
	default:
		return "", 0, false
	}
	p, err := acl.ParsePrivilege(rest)
	if err != nil {
		return "", 0, false
	}
	return p, t, true
}

// IsAclField reports whether name is an ace field or the inheritance field.
func IsAclField(name string) bool {
	return strings.HasPrefix(name, aceMarker) || name == AclInheritedFromField
}

// Fields returns one indexed and stored entry per granted principal, then the inheritance entry.
// A nil acl produces only the inheritance entry.
func (a *AclFields) Fields(entries *acl.Acl, inheritedFrom int64) []document.Field {
	var out []document.Field
	if entries != nil {
		for _, p := range entries.Actions() {
			for _, t := range []acl.PrincipalType{acl.User, acl.Group} {
				name := AceFieldName(p, t)
				for _, pr := range entries.Principals(p, t) {
					out = append(out, a.codec.StringFields(name, pr.QualifiedName, document.IndexedStored)...)
				}
			}
		}
	}
	return append(out, a.codec.LongFields(AclInheritedFromField, inheritedFrom, document.IndexedStored)...)
}

// AceFieldNames returns the distinct ace field names present in fs, in order.
func AceFieldNames(fs []document.Field) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range fs {
		if strings.HasPrefix(f.Name, aceMarker) && !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}
	return out
}

// DecodeAcl rebuilds an acl from stored entries, ignoring non-acl entries.
func DecodeAcl(stored []document.Field) (*acl.Acl, error) {
	out := acl.New()
	for _, f := range stored {
		if f.Kind != document.Stored || !strings.HasPrefix(f.Name, aceMarker) {
			continue
		}
		p, t, ok := ParseAceFieldName(f.Name)
		if !ok {
			return nil, fmt.Errorf("malformed acl field %q", f.Name)
		}
		out.Grant(p, acl.Principal{Type: t, QualifiedName: f.Text})
	}
	return out, nil
}

// AclInheritedFrom decodes the inheritance entry of stored, or property.NoID.
func AclInheritedFrom(stored []document.Field) int64 {
	for _, f := range stored {
		if f.Name == AclInheritedFromField && f.Kind == document.Stored && f.Numeric {
			return f.Num
		}
	}
	return property.NoID
}
