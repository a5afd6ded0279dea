package odata

import (
	"encoding/xml"
	"fmt"
	"github.com/andesco/odata-valet/internal/entities"
	"strconv"
	"time"
)

const (
	updatedLayout  = "2006-01-02T15:04:05.000Z"
	dateTimeLayout = "2006-01-02T15:04:05"
)

type feed struct {
	XMLName xml.Name `xml:"feed"`
	Base    string   `xml:"xml:base,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	XmlnsD  string   `xml:"xmlns:d,attr"`
	XmlnsM  string   `xml:"xmlns:m,attr"`
	ID      string   `xml:"id"`
	Title   text     `xml:"title"`
	Updated string   `xml:"updated"`
	Link    link     `xml:"link"`
	Entries []entry  `xml:"entry"`
}

type link struct {
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

type entry struct {
	ID       string   `xml:"id"`
	Title    text     `xml:"title"`
	Updated  string   `xml:"updated"`
	Author   author   `xml:"author"`
	Link     link     `xml:"link"`
	Category category `xml:"category"`
	Content  content  `xml:"content"`
}

type author struct {
	Name string `xml:"name"`
}

type category struct {
	Term   string `xml:"term,attr"`
	Scheme string `xml:"scheme,attr"`
}

type content struct {
	Type       string     `xml:"type,attr"`
	Properties properties `xml:"m:properties"`
}

type property struct {
	Column Column
	Value  string
}

// properties renders as <d:Name m:type="Edm.X">value</d:Name> children.
type properties []property

func (p properties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, prop := range p {
		el := xml.StartElement{
			Name: xml.Name{Local: "d:" + prop.Column.Name},
			Attr: []xml.Attr{{Name: xml.Name{Local: "m:type"}, Value: string(prop.Column.Type)}},
		}
		if err := e.EncodeElement(prop.Value, el); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// Feed renders records as an Atom feed with one property per column, in column order.
// Decimal columns take the record cells in order. Zero records yield a feed without entries.
func Feed(baseURL string, columns []Column, records []entities.Record, updated time.Time) ([]byte, error) {
	rates := 0
	for _, c := range columns {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if c.Type == EdmDecimal {
			rates++
		}
	}

	self := baseURL + "/" + EntitySet

	doc := feed{
		Base:    baseURL + "/",
		Xmlns:   NamespaceAtom,
		XmlnsD:  NamespaceData,
		XmlnsM:  NamespaceMetadata,
		ID:      self,
		Title:   plain(EntitySet),
		Updated: updated.UTC().Format(updatedLayout),
		Link:    link{Rel: "self", Title: EntitySet, Href: self},
		Entries: make([]entry, 0, len(records)),
	}

	for _, r := range records {
		if len(r.Cells) != rates {
			return nil, fmt.Errorf("record %d has %d cells for %d rate columns", r.ID, len(r.Cells), rates)
		}

		e, err := newEntry(baseURL, columns, r)
		if err != nil {
			return nil, err
		}
		doc.Entries = append(doc.Entries, e)
	}

	return encode(doc)
}

func newEntry(baseURL string, columns []Column, r entities.Record) (entry, error) {
	id := strconv.Itoa(r.ID)
	day := r.Date.UTC().Format(entities.DateLayout)
	edit := fmt.Sprintf("%s(%s)", EntitySet, id)

	props := make(properties, 0, len(columns))
	cell := 0
	for _, c := range columns {
		var value string
		switch c.Type {
		case EdmInt32:
			value = id
		case EdmDateTime:
			value = r.Date.UTC().Format(dateTimeLayout)
		case EdmDecimal:
			if r.Cells[cell].Column != c.Name {
				return entry{}, fmt.Errorf("record %d: cell %q under column %q", r.ID, r.Cells[cell].Column, c.Name)
			}
			value = r.Cells[cell].Text()
			cell++
		default:
			return entry{}, fmt.Errorf("column %q: unsupported type %s", c.Name, c.Type)
		}
		props = append(props, property{Column: c, Value: value})
	}

	return entry{
		ID:       baseURL + "/" + edit,
		Title:    plain("Exchange Rates " + day),
		Updated:  day + "T00:00:00Z",
		Link:     link{Rel: "edit", Title: EntityType, Href: edit},
		Category: category{Term: QualifiedType, Scheme: NamespaceScheme},
		Content:  content{Type: "application/xml", Properties: props},
	}, nil
}
