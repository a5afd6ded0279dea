package odata

import "encoding/xml"

type edmxDocument struct {
	XMLName      xml.Name     `xml:"edmx:Edmx"`
	Version      string       `xml:"Version,attr"`
	XmlnsEdmx    string       `xml:"xmlns:edmx,attr"`
	DataServices dataServices `xml:"edmx:DataServices"`
}

type dataServices struct {
	Version string `xml:"m:DataServiceVersion,attr"`
	XmlnsM  string `xml:"xmlns:m,attr"`
	Schema  schema `xml:"Schema"`
}

type schema struct {
	Namespace  string          `xml:"Namespace,attr"`
	Xmlns      string          `xml:"xmlns,attr"`
	EntityType entityType      `xml:"EntityType"`
	Container  entityContainer `xml:"EntityContainer"`
}

type entityType struct {
	Name       string        `xml:"Name,attr"`
	Key        []propertyRef `xml:"Key>PropertyRef"`
	Properties []propertyDef `xml:"Property"`
}

type propertyRef struct {
	Name string `xml:"Name,attr"`
}

type propertyDef struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable string `xml:"Nullable,attr,omitempty"`
}

type entityContainer struct {
	Name      string    `xml:"Name,attr"`
	IsDefault bool      `xml:"m:IsDefaultEntityContainer,attr"`
	EntitySet entitySet `xml:"EntitySet"`
}

type entitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

// Metadata describes the ExchangeRate entity for the given currency codes.
func Metadata(codes []string) ([]byte, error) {
	columns := Columns(codes)

	et := entityType{Name: EntityType}
	for _, c := range columns {
		if err := c.validate(); err != nil {
			return nil, err
		}

		def := propertyDef{Name: c.Name, Type: string(c.Type)}
		if !c.Nullable {
			def.Nullable = "false"
		}
		et.Properties = append(et.Properties, def)

		if c.Key {
			et.Key = append(et.Key, propertyRef{Name: c.Name})
		}
	}

	return encode(edmxDocument{
		Version:   "1.0",
		XmlnsEdmx: NamespaceEdmx,
		DataServices: dataServices{
			Version: ServiceVersion,
			XmlnsM:  NamespaceMetadata,
			Schema: schema{
				Namespace:  SchemaName,
				Xmlns:      NamespaceEdm,
				EntityType: et,
				Container: entityContainer{
					Name:      ContainerName,
					IsDefault: true,
					EntitySet: entitySet{Name: EntitySet, EntityType: QualifiedType},
				},
			},
		},
	})
}
