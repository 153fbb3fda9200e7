package mapper

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/domain/acl"
	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/value"
	"github.com/kailas-cloud/propdex/internal/index/document"
	"github.com/kailas-cloud/propdex/internal/index/fields"
	"github.com/kailas-cloud/propdex/internal/metrics"
)

type cachedDef struct {
	def *property.Definition
}

// selector decides which property definitions are indexed for one resource type.
type selector struct {
	belongs map[[2]string]struct{}
}

func (s *selector) includes(def *property.Definition) bool {
	_, ok := s.belongs[[2]string{def.Namespace().Prefix, def.Name()}]
	return ok
}

// Mapper converts between property sets and index documents.
// It is safe for concurrent use.
type Mapper struct {
	types  TypeResolver
	codec  *fields.Codec
	props  fields.PropertyFields
	res    *fields.ResourceFields
	acls   *fields.AclFields
	logger *zap.Logger

	defs *xsync.MapOf[string, cachedDef]

	selMu     sync.Mutex
	selectors map[string]*selector
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// New creates a Mapper.
func New(types TypeResolver, codec *fields.Codec, opts ...Option) *Mapper {
	m := &Mapper{
		types:     types,
		codec:     codec,
		res:       fields.NewResourceFields(codec),
		acls:      fields.NewAclFields(codec),
		logger:    zap.NewNop(),
		defs:      xsync.NewMapOf[string, cachedDef](),
		selectors: make(map[string]*selector),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Codec returns the field codec.
func (m *Mapper) Codec() *fields.Codec { return m.codec }

// Invalidate drops both caches. Call it whenever the type configuration changes.
func (m *Mapper) Invalidate() {
	m.defs.Clear()

	m.selMu.Lock()
	m.selectors = make(map[string]*selector)
	m.selMu.Unlock()

	metrics.MapperInvalidationsTotal.Inc()
	m.logger.Info("mapper caches invalidated")
}

// GetDocument builds the index document of ps and its acl.
// An unknown resource type yields a document with resource and acl fields only.
func (m *Mapper) GetDocument(ps property.Set, entries *acl.Acl) (*document.Document, error) {
	start := time.Now()
	defer func() { metrics.DocumentBuildDuration.Observe(time.Since(start).Seconds()) }()

	typ := ps.ResourceType()
	path, typeErr := m.types.Path(typ)

	doc := document.New(m.res.Fields(ps, path)...)
	aclFields := m.acls.Fields(entries, ps.AclInheritedFrom())
	doc.Add(aclFields...)
	present := fields.AceFieldNames(aclFields)

	if typeErr != nil {
		m.logger.Warn("resource type not resolvable, indexing without properties",
			zap.String("uri", ps.URI()), zap.String("resource_type", typ), zap.Error(typeErr))
		m.addFieldNames(doc, present)
		return doc, nil
	}

	sel, err := m.selector(typ)
	if err != nil {
		return nil, err
	}

	for _, p := range ps.Properties() {
		def := p.Definition()
		if def == nil || def.IsDead() {
			continue
		}
		if !sel.includes(def) && !p.IsInherited() {
			continue
		}
		names, err := m.propertyFields(doc, p)
		if err != nil {
			return nil, fmt.Errorf("property %s of %s: %w", def, ps.URI(), err)
		}
		present = append(present, names...)
	}

	m.addFieldNames(doc, present)
	return doc, nil
}

func (m *Mapper) addFieldNames(doc *document.Document, names []string) {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		doc.Add(document.Field{Name: fields.FieldNamesField, Kind: document.Indexed, Text: n})
	}
}

// propertyFields adds the entries of p and returns the names usable in exists queries.
func (m *Mapper) propertyFields(doc *document.Document, p *property.Property) ([]string, error) {
	def := p.Definition()
	values := p.Values()
	field := m.props.FieldName(def, false)

	switch def.Type() {
	case value.TypeBinary:
		return nil, nil
	case value.TypeJSON:
		return m.jsonFields(doc, def, values)
	}

	single := !def.IsMultiple() && len(values) == 1
	spec := document.IndexedStored
	if single && def.Type() != value.TypeString {
		spec = document.IndexedStoredWithDocValue
	}

	for _, v := range values {
		doc.Add(m.codec.ValueFields(field, v, spec)...)
	}
	if def.Type() == value.TypeString || def.Type() == value.TypeHTML {
		lc := m.props.FieldName(def, true)
		for _, v := range values {
			doc.Add(m.codec.StringFields(lc, v.Text(), document.IndexedLowercase)...)
		}
	}
	if single && def.Type() == value.TypeString {
		doc.Add(m.codec.StringSortField(m.props.SortFieldName(def, ""), values[0].Text()))
	}
	return []string{field}, nil
}

// jsonFields stores the raw JSON under the property field and indexes every scalar
// attribute under its own field, typed by the attribute declaration.
func (m *Mapper) jsonFields(doc *document.Document, def *property.Definition, values []value.Value) ([]string, error) {
	field := m.props.FieldName(def, false)
	names := []string{field}

	leaves := make(map[string][]value.Value)
	var order []string
	for _, v := range values {
		doc.Add(m.codec.StringFields(field, v.Text(), document.StoredOnly)...)

		decoded, err := v.JSON()
		if err != nil {
			return nil, err
		}
		for _, leaf := range flattenJSON(decoded) {
			if !property.IsValidAttribute(leaf.path) {
				continue
			}
			at := m.props.JSONFieldDataType(def, leaf.path)
			av, err := m.codec.ParseValue(leaf.text, at)
			if err != nil {
				m.logger.Debug("json attribute does not match its declared type",
					zap.String("property", def.String()), zap.String("attribute", leaf.path), zap.Error(err))
				continue
			}
			if _, ok := leaves[leaf.path]; !ok {
				order = append(order, leaf.path)
			}
			leaves[leaf.path] = append(leaves[leaf.path], av)
		}
	}

	for _, attr := range order {
		avs := leaves[attr]
		at := m.props.JSONFieldDataType(def, attr)
		af := m.props.JSONFieldName(def, attr, false)
		single := !def.IsMultiple() && len(avs) == 1

		spec := document.IndexedOnly
		if single && at != value.TypeString {
			spec = document.IndexedWithDocValue
		}
		for _, av := range avs {
			doc.Add(m.codec.ValueFields(af, av, spec)...)
		}
		if at.IsTextual() {
			lc := m.props.JSONFieldName(def, attr, true)
			for _, av := range avs {
				doc.Add(m.codec.StringFields(lc, av.Text(), document.IndexedLowercase)...)
			}
		}
		if single && at == value.TypeString {
			doc.Add(m.codec.StringSortField(m.props.SortFieldName(def, attr), avs[0].Text()))
		}
		names = append(names, af)
	}
	return names, nil
}

// selector returns the cached property selector of typ, building it on first use.
func (m *Mapper) selector(typ string) (*selector, error) {
	m.selMu.Lock()
	defer m.selMu.Unlock()

	if sel, ok := m.selectors[typ]; ok {
		return sel, nil
	}
	defs, err := m.types.PropertyDefinitions(typ)
	if err != nil {
		return nil, err
	}
	sel := &selector{belongs: make(map[[2]string]struct{}, len(defs))}
	for _, d := range defs {
		sel.belongs[[2]string{d.Namespace().Prefix, d.Name()}] = struct{}{}
	}
	m.selectors[typ] = sel
	return sel, nil
}

// Definition resolves the property definition of a field name, or nil.
func (m *Mapper) Definition(field string) *property.Definition {
	cached, loaded := m.defs.LoadOrCompute(field, func() cachedDef {
		fn, ok := m.props.Decode(field)
		if !ok {
			return cachedDef{}
		}
		def, _ := m.types.Definition(fn.Prefix, fn.Name)
		return cachedDef{def: def}
	})
	if loaded {
		metrics.DefinitionCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.DefinitionCacheTotal.WithLabelValues("miss").Inc()
	}
	return cached.def
}

// PropertyFromFields materializes a property from the stored entries of one field.
// Fields without a configured definition decode with a dead definition inferred from the entries.
func (m *Mapper) PropertyFromFields(field string, stored []document.Field) (*property.Property, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("field %q: no stored values", field)
	}
	def := m.Definition(field)
	if def == nil {
		fn, ok := m.props.Decode(field)
		if !ok {
			return nil, fmt.Errorf("field %q is not a property field", field)
		}
		m.logger.Warn("no property definition for field, decoding best effort", zap.String("field", field))
		ns, ok := m.types.Namespace(fn.Prefix)
		if !ok {
			ns = property.Namespace{Prefix: fn.Prefix}
		}
		t := value.TypeString
		if stored[0].Numeric {
			t = value.TypeLong
		}
		def = property.NewDeadDefinition(ns, fn.Name, t, len(stored) > 1)
	}

	values := make([]value.Value, 0, len(stored))
	for _, f := range stored {
		v, err := decodeStored(f, def.Type())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		values = append(values, v)
	}
	if !def.IsMultiple() && len(values) > 1 {
		def = property.NewDeadDefinition(def.Namespace(), def.Name(), def.Type(), true)
	}
	return property.New(def, values...)
}

func decodeStored(f document.Field, t value.Type) (value.Value, error) {
	switch t {
	case value.TypeInt, value.TypeLong:
		n := f.Num
		if !f.Numeric {
			parsed, err := strconv.ParseInt(f.Text, 10, 64)
			if err != nil {
				return value.Value{}, &value.FormatError{Value: f.Text, Type: t, Err: err}
			}
			n = parsed
		}
		if t == value.TypeInt {
			if n < -1<<31 || n > 1<<31-1 {
				return value.Value{}, &value.FormatError{Value: f.StoredValue(), Type: t, Err: errors.New("out of range")}
			}
			return value.NewInt(int32(n)), nil
		}
		return value.NewLong(n), nil
	case value.TypeDate, value.TypeTimestamp:
		if f.Numeric {
			ts := time.UnixMilli(f.Num).UTC()
			if t == value.TypeDate {
				return value.NewDate(ts), nil
			}
			return value.NewTimestamp(ts), nil
		}
		return value.Parse(t, f.Text)
	default:
		if f.Numeric {
			return value.Parse(t, f.StoredValue())
		}
		return value.Parse(t, f.Text)
	}
}

// GetPropertySet wraps stored entries in a lazily decoded property set.
func (m *Mapper) GetPropertySet(stored []document.Field) (*LazyMappedPropertySet, error) {
	return NewLazyMappedPropertySet(stored, m, m.logger)
}
