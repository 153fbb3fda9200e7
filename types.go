package propdex

import (
	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/resourcetype"
	"github.com/kailas-cloud/propdex/internal/domain/search/query"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
	searchuc "github.com/kailas-cloud/propdex/internal/usecase/search"
)

// Public names of the domain types accepted and returned by Client.
type (
	// Tree resolves resource types and property definitions.
	Tree = resourcetype.Tree
	// Definition describes one property.
	Definition = property.Definition
	// Property is a typed property value list.
	Property = property.Property
	// PropertySet is a resource with its properties.
	PropertySet = property.Set
	// Resource is the in-memory PropertySet.
	Resource = property.Resource
	// Value is a typed property value.
	Value = value.Value
	// Select restricts the properties loaded for a hit.
	Select = property.Select
	// Acl holds the access control entries of a resource.
	Acl = acl.Acl
	// Principal is a user or group named in an acl.
	Principal = acl.Principal
	// Privilege is an acl action.
	Privilege = acl.Privilege
	// Item is one resource to index.
	Item = searchuc.Item
	// Result is one page of matching resources.
	Result = searchuc.Result
	// LoadedSet is a property set read back from the index. Properties decode on access.
	LoadedSet = mapper.LazyMappedPropertySet
)

// Query tree nodes.
type (
	Query            = query.Query
	Operator         = query.Operator
	And              = query.And
	Or               = query.Or
	MatchAll         = query.MatchAll
	AclExists        = query.AclExists
	AclInheritedFrom = query.AclInheritedFrom
	UriTerm          = query.UriTerm
	UriPrefix        = query.UriPrefix
	UriSet           = query.UriSet
	UriDepth         = query.UriDepth
	NameTerm         = query.NameTerm
	NameRange        = query.NameRange
	NamePrefix       = query.NamePrefix
	NameWildcard     = query.NameWildcard
	PropertyTerm     = query.PropertyTerm
	PropertyTerms    = query.PropertyTerms
	PropertyRange    = query.PropertyRange
	PropertyPrefix   = query.PropertyPrefix
	PropertyWildcard = query.PropertyWildcard
	PropertyExists   = query.PropertyExists
	TypeTerm         = query.TypeTerm
	SortField        = query.SortField
)

// Operators.
const (
	EQ           = query.EQ
	NE           = query.NE
	EQIgnoreCase = query.EQIgnoreCase
	NEIgnoreCase = query.NEIgnoreCase
	GE           = query.GE
	GT           = query.GT
	LE           = query.LE
	LT           = query.LT
	IN           = query.IN
	NI           = query.NI
)

// Sort kinds.
const (
	SortURI      = query.SortURI
	SortName     = query.SortName
	SortType     = query.SortType
	SortProperty = query.SortProperty
)

// Acl privileges.
const (
	Read      = acl.Read
	ReadWrite = acl.ReadWrite
)

var (
	// SelectAll loads every stored property.
	SelectAll = property.SelectAll
	// SelectNone loads only the identifying fields.
	SelectNone = property.SelectNone

	// NewResource starts an in-memory property set.
	NewResource = property.NewResource
	// NewProperty creates a property of def.
	NewProperty = property.New
	// NewAcl creates an empty acl.
	NewAcl = acl.New
	// NewUser names a user principal.
	NewUser = acl.NewUser
	// NewGroup names a group principal.
	NewGroup = acl.NewGroup
	// ParseValue parses the textual form of a value of type t.
	ParseValue = value.Parse
	// LoadTypes reads a resource type tree from a YAML file.
	LoadTypes = resourcetype.LoadFile
)
