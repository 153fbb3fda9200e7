package index

import (
	"github.com/kailas-cloud/propdex/internal/index/document"
)

// jsonDoc is the Redis representation of an index document. Stored entries keep
// their order; indexed terms are grouped per schema attribute.
type jsonDoc struct {
	URI    string              `json:"uri"`
	Stored []storedEntry       `json:"s"`
	Tags   map[string][]string `json:"t,omitempty"`
	Nums   map[string][]int64  `json:"n,omitempty"`
}

type storedEntry struct {
	Name string `json:"k"`
	Text string `json:"v,omitempty"`
	Num  *int64 `json:"i,omitempty"`
}

// buildJSONDoc converts doc for storage. Indexed terms of fields the schema does
// not declare are dropped and counted in skipped. Doc values are not kept.
func buildJSONDoc(s *Schema, uri string, doc *document.Document) (jd jsonDoc, skipped int) {
	jd = jsonDoc{URI: uri, Tags: make(map[string][]string), Nums: make(map[string][]int64)}
	for _, f := range doc.Fields() {
		switch f.Kind {
		case document.Stored:
			e := storedEntry{Name: f.Name, Text: f.Text}
			if f.Numeric {
				n := f.Num
				e.Num, e.Text = &n, ""
			}
			jd.Stored = append(jd.Stored, e)
		case document.Indexed:
			a, ok := s.attrs[f.Name]
			if !ok {
				skipped++
				continue
			}
			jd.Tags[a.tag] = append(jd.Tags[a.tag], f.Text)
			if a.numeric != "" && f.Numeric {
				jd.Nums[a.numeric] = append(jd.Nums[a.numeric], f.Num)
			}
		}
	}
	return jd, skipped
}

// storedFields returns the stored entries in their original order.
func (jd *jsonDoc) storedFields() []document.Field {
	out := make([]document.Field, 0, len(jd.Stored))
	for _, e := range jd.Stored {
		f := document.Field{Name: e.Name, Kind: document.Stored, Text: e.Text}
		if e.Num != nil {
			f.Num, f.Numeric = *e.Num, true
		}
		out = append(out, f)
	}
	return out
}
