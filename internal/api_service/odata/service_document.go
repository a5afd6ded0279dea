package odata

import "encoding/xml"

type serviceDocument struct {
	XMLName   xml.Name  `xml:"service"`
	Base      string    `xml:"xml:base,attr"`
	Xmlns     string    `xml:"xmlns,attr"`
	XmlnsAtom string    `xml:"xmlns:atom,attr"`
	Workspace workspace `xml:"workspace"`
}

type workspace struct {
	Title       string       `xml:"atom:title"`
	Collections []collection `xml:"collection"`
}

type collection struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"atom:title"`
}

// ServiceDocument advertises the ExchangeRates collection under baseURL.
func ServiceDocument(baseURL string) ([]byte, error) {
	return encode(serviceDocument{
		Base:      baseURL + "/",
		Xmlns:     NamespaceApp,
		XmlnsAtom: NamespaceAtom,
		Workspace: workspace{
			Title: "Default",
			Collections: []collection{
				{Href: EntitySet, Title: EntitySet},
			},
		},
	})
}
