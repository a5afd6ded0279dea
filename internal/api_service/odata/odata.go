// Package odata renders the OData v2/v3 documents served for exchange rates:
// the Atom service document, the EDMX metadata and the Atom feed.
package odata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
)

const (
	NamespaceApp      = "http://www.w3.org/2007/app"
	NamespaceAtom     = "http://www.w3.org/2005/Atom"
	NamespaceData     = "http://schemas.microsoft.com/ado/2007/08/dataservices"
	NamespaceMetadata = "http://schemas.microsoft.com/ado/2007/08/dataservices/metadata"
	NamespaceScheme   = "http://schemas.microsoft.com/ado/2007/08/dataservices/scheme"
	NamespaceEdmx     = "http://schemas.microsoft.com/ado/2007/06/edmx"
	NamespaceEdm      = "http://schemas.microsoft.com/ado/2009/11/edm"
)

const (
	EntitySet      = "ExchangeRates"
	EntityType     = "ExchangeRate"
	SchemaName     = "ExchangeRates"
	ContainerName  = "ExchangeRatesContainer"
	QualifiedType  = SchemaName + "." + EntityType
	ServiceVersion = "3.0"
	FeedVersion    = "2.0"
)

var propertyName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}

	return buf.Bytes(), nil
}

type text struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

func plain(s string) text {
	return text{Type: "text", Value: s}
}
