package doclist

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/calvinalkan/docmigrate/internal/migrate"
)

// Link relations and category schemes used by the Documents List feeds.
const (
	relParent    = "http://schemas.google.com/docs/2007#parent"
	relAlternate = "alternate"
	schemeKind   = "http://schemas.google.com/g/2005#kind"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

type atomEntry struct {
	XMLName    xml.Name       `xml:"http://www.w3.org/2005/Atom entry"`
	ID         string         `xml:"http://www.w3.org/2005/Atom id"`
	Title      string         `xml:"http://www.w3.org/2005/Atom title"`
	Updated    string         `xml:"http://www.w3.org/2005/Atom updated"`
	ResourceID string         `xml:"http://schemas.google.com/g/2005 resourceId"`
	Links      []atomLink     `xml:"http://www.w3.org/2005/Atom link"`
	Categories []atomCategory `xml:"http://www.w3.org/2005/Atom category"`
	Authors    []atomPerson   `xml:"http://www.w3.org/2005/Atom author"`
}

type atomLink struct {
	Rel   string `xml:"rel,attr"`
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Scheme string `xml:"scheme,attr"`
	Term   string `xml:"term,attr"`
	Label  string `xml:"label,attr"`
}

type atomPerson struct {
	Name  string `xml:"http://www.w3.org/2005/Atom name"`
	Email string `xml:"http://www.w3.org/2005/Atom email"`
}

func (e atomEntry) updated() time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated))
	if err != nil {
		return time.Time{}
	}

	return t
}

func (e atomEntry) link(rel string) string {
	for _, l := range e.Links {
		if l.Rel == rel {
			return l.Href
		}
	}

	return ""
}

func (e atomEntry) kind() string {
	for _, c := range e.Categories {
		if c.Scheme == schemeKind {
			if c.Label != "" {
				return c.Label
			}

			_, label, _ := strings.Cut(c.Term, "#")

			return label
		}
	}

	return ""
}

func (e atomEntry) document() migrate.Document {
	doc := migrate.Document{
		ID:      strings.TrimSpace(e.ResourceID),
		Title:   strings.TrimSpace(e.Title),
		Kind:    e.kind(),
		Updated: e.updated(),
		Link:    e.link(relAlternate),
	}

	for _, l := range e.Links {
		if l.Rel == relParent {
			doc.Parents = append(doc.Parents, l.Title)
		}
	}

	return doc
}

func (e atomEntry) revision() migrate.Revision {
	rev := migrate.Revision{
		Title:   strings.TrimSpace(e.Title),
		Updated: e.updated(),
		Link:    e.link(relAlternate),
	}

	if len(e.Authors) > 0 {
		rev.Author = e.Authors[0].Name
		rev.AuthorEmail = e.Authors[0].Email
	}

	return rev
}
