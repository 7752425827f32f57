package grampsxml

import (
	"encoding/xml"

	"github.com/starford/grampsxml/internal/models"
)

// Wire structs mirror the Gramps XML vocabulary. Field order is the element
// and attribute order written by the serializer.

type xmlDatabase struct {
	XMLName      xml.Name
	Header       *xmlHeader       `xml:"header"`
	People       *xmlPeople       `xml:"people"`
	Families     *xmlFamilies     `xml:"families"`
	Events       *xmlEvents       `xml:"events"`
	Places       *xmlPlaces       `xml:"places"`
	Sources      *xmlSources      `xml:"sources"`
	Citations    *xmlCitations    `xml:"citations"`
	Repositories *xmlRepositories `xml:"repositories"`
	Notes        *xmlNotes        `xml:"notes"`
	Tags         *xmlTags         `xml:"tags"`
}

type xmlHeader struct {
	Created    *xmlCreated    `xml:"created"`
	Researcher *xmlResearcher `xml:"researcher"`
	MediaPath  string         `xml:"mediapath,omitempty"`
}

type xmlCreated struct {
	Date    string `xml:"date,attr,omitempty"`
	Version string `xml:"version,attr,omitempty"`
}

type xmlResearcher struct {
	Name     string `xml:"resname,omitempty"`
	Address  string `xml:"resaddr,omitempty"`
	Locality string `xml:"reslocality,omitempty"`
	City     string `xml:"rescity,omitempty"`
	State    string `xml:"resstate,omitempty"`
	Country  string `xml:"rescountry,omitempty"`
	Postal   string `xml:"respostal,omitempty"`
	Phone    string `xml:"resphone,omitempty"`
	Email    string `xml:"resemail,omitempty"`
}

type xmlRef struct {
	HLink string `xml:"hlink,attr"`
}

type xmlEventRef struct {
	HLink string `xml:"hlink,attr"`
	Role  string `xml:"role,attr,omitempty"`
}

type xmlChildRef struct {
	HLink string `xml:"hlink,attr"`
	MRel  string `xml:"mrel,attr,omitempty"`
	FRel  string `xml:"frel,attr,omitempty"`
}

type xmlRepoRef struct {
	HLink  string `xml:"hlink,attr"`
	Medium string `xml:"medium,attr,omitempty"`
}

type xmlDateVal struct {
	Val string `xml:"val,attr"`
}

type xmlRelType struct {
	Type string `xml:"type,attr"`
}

type xmlPeople struct {
	Person []xmlPerson `xml:"person"`
}

type xmlPerson struct {
	Handle       string        `xml:"handle,attr"`
	Change       string        `xml:"change,attr,omitempty"`
	ID           string        `xml:"id,attr,omitempty"`
	Priv         string        `xml:"priv,attr,omitempty"`
	Gender       string        `xml:"gender"`
	Names        []xmlName     `xml:"name"`
	EventRefs    []xmlEventRef `xml:"eventref"`
	ChildOf      []xmlRef      `xml:"childof"`
	ParentIn     []xmlRef      `xml:"parentin"`
	NoteRefs     []xmlRef      `xml:"noteref"`
	CitationRefs []xmlRef      `xml:"citationref"`
	TagRefs      []xmlRef      `xml:"tagref"`
}

type xmlName struct {
	Type    string `xml:"type,attr,omitempty"`
	First   string `xml:"first,omitempty"`
	Surname string `xml:"surname,omitempty"`
	Suffix  string `xml:"suffix,omitempty"`
	Title   string `xml:"title,omitempty"`
}

type xmlFamilies struct {
	Family []xmlFamily `xml:"family"`
}

type xmlFamily struct {
	Handle       string        `xml:"handle,attr"`
	Change       string        `xml:"change,attr,omitempty"`
	ID           string        `xml:"id,attr,omitempty"`
	Priv         string        `xml:"priv,attr,omitempty"`
	Rel          *xmlRelType   `xml:"rel"`
	Father       *xmlRef       `xml:"father"`
	Mother       *xmlRef       `xml:"mother"`
	EventRefs    []xmlEventRef `xml:"eventref"`
	ChildRefs    []xmlChildRef `xml:"childref"`
	NoteRefs     []xmlRef      `xml:"noteref"`
	CitationRefs []xmlRef      `xml:"citationref"`
	TagRefs      []xmlRef      `xml:"tagref"`
}

type xmlEvents struct {
	Event []xmlEvent `xml:"event"`
}

type xmlEvent struct {
	Handle       string      `xml:"handle,attr"`
	Change       string      `xml:"change,attr,omitempty"`
	ID           string      `xml:"id,attr,omitempty"`
	Priv         string      `xml:"priv,attr,omitempty"`
	Type         string      `xml:"type,omitempty"`
	DateVal      *xmlDateVal `xml:"dateval"`
	Place        *xmlRef     `xml:"place"`
	Description  string      `xml:"description,omitempty"`
	NoteRefs     []xmlRef    `xml:"noteref"`
	CitationRefs []xmlRef    `xml:"citationref"`
}

type xmlPlaces struct {
	Place []xmlPlace `xml:"placeobj"`
}

type xmlPlace struct {
	Handle string `xml:"handle,attr"`
	Change string `xml:"change,attr,omitempty"`
	ID     string `xml:"id,attr,omitempty"`
	Priv   string `xml:"priv,attr,omitempty"`
	Type   string `xml:"type,attr,omitempty"`
	Title  string `xml:"ptitle,omitempty"`
}

type xmlSources struct {
	Source []xmlSource `xml:"source"`
}

type xmlSource struct {
	Handle   string       `xml:"handle,attr"`
	Change   string       `xml:"change,attr,omitempty"`
	ID       string       `xml:"id,attr,omitempty"`
	Priv     string       `xml:"priv,attr,omitempty"`
	Title    string       `xml:"stitle,omitempty"`
	Author   string       `xml:"sauthor,omitempty"`
	NoteRefs []xmlRef     `xml:"noteref"`
	RepoRefs []xmlRepoRef `xml:"reporef"`
}

type xmlCitations struct {
	Citation []xmlCitation `xml:"citation"`
}

type xmlCitation struct {
	Handle     string      `xml:"handle,attr"`
	Change     string      `xml:"change,attr,omitempty"`
	ID         string      `xml:"id,attr,omitempty"`
	Priv       string      `xml:"priv,attr,omitempty"`
	DateVal    *xmlDateVal `xml:"dateval"`
	Page       string      `xml:"page,omitempty"`
	Confidence string      `xml:"confidence,omitempty"`
	NoteRefs   []xmlRef    `xml:"noteref"`
	SourceRef  *xmlRef     `xml:"sourceref"`
}

type xmlRepositories struct {
	Repository []xmlRepository `xml:"repository"`
}

type xmlRepository struct {
	Handle string `xml:"handle,attr"`
	Change string `xml:"change,attr,omitempty"`
	ID     string `xml:"id,attr,omitempty"`
	Priv   string `xml:"priv,attr,omitempty"`
	Name   string `xml:"rname,omitempty"`
	Type   string `xml:"type,omitempty"`
}

type xmlNotes struct {
	Note []xmlNote `xml:"note"`
}

type xmlNote struct {
	Handle string `xml:"handle,attr"`
	Change string `xml:"change,attr,omitempty"`
	ID     string `xml:"id,attr,omitempty"`
	Priv   string `xml:"priv,attr,omitempty"`
	Format string `xml:"format,attr,omitempty"`
	Type   string `xml:"type,attr,omitempty"`
	Text   string `xml:"text"`
}

type xmlTags struct {
	Tag []xmlTag `xml:"tag"`
}

type xmlTag struct {
	Handle   string `xml:"handle,attr"`
	Change   string `xml:"change,attr,omitempty"`
	Name     string `xml:"name,attr"`
	Color    string `xml:"color,attr,omitempty"`
	Priority string `xml:"priority,attr"`
}

func parsePriv(s string) bool {
	return s == "1" || s == "true"
}

func formatPriv(b bool) string {
	if b {
		return "1"
	}
	return ""
}

func hlinks(refs []xmlRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.HLink
	}
	return out
}

func toRefs(handles []string) []xmlRef {
	if len(handles) == 0 {
		return nil
	}
	out := make([]xmlRef, len(handles))
	for i, h := range handles {
		out[i] = xmlRef{HLink: h}
	}
	return out
}

func hlinkOf(r *xmlRef) string {
	if r == nil {
		return ""
	}
	return r.HLink
}

func refOf(handle string) *xmlRef {
	if handle == "" {
		return nil
	}
	return &xmlRef{HLink: handle}
}

func dateOf(d *xmlDateVal) string {
	if d == nil {
		return ""
	}
	return d.Val
}

func dateValOf(val string) *xmlDateVal {
	if val == "" {
		return nil
	}
	return &xmlDateVal{Val: val}
}

func eventRefs(refs []xmlEventRef) []models.EventRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]models.EventRef, len(refs))
	for i, r := range refs {
		out[i] = models.EventRef{Handle: r.HLink, Role: r.Role}
	}
	return out
}

func toEventRefs(refs []models.EventRef) []xmlEventRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]xmlEventRef, len(refs))
	for i, r := range refs {
		out[i] = xmlEventRef{HLink: r.Handle, Role: r.Role}
	}
	return out
}

// toModel converts the decoded wire tree into a Document. Missing optional
// elements map to zero values.
func (db *xmlDatabase) toModel() *models.Document {
	doc := &models.Document{}

	if h := db.Header; h != nil {
		if h.Created != nil {
			doc.Header.Created = models.Created{Date: h.Created.Date, Version: h.Created.Version}
		}
		if r := h.Researcher; r != nil {
			doc.Header.Researcher = &models.Researcher{
				Name: r.Name, Address: r.Address, Locality: r.Locality, City: r.City,
				State: r.State, Country: r.Country, Postal: r.Postal, Phone: r.Phone, Email: r.Email,
			}
		}
		doc.Header.MediaPath = h.MediaPath
	}

	if db.People != nil {
		for _, p := range db.People.Person {
			person := models.Person{
				ID:           p.ID,
				Handle:       p.Handle,
				Change:       models.ParseTimestamp(p.Change),
				Private:      parsePriv(p.Priv),
				Gender:       models.Gender(p.Gender),
				EventRefs:    eventRefs(p.EventRefs),
				ChildOf:      hlinks(p.ChildOf),
				ParentIn:     hlinks(p.ParentIn),
				NoteRefs:     hlinks(p.NoteRefs),
				CitationRefs: hlinks(p.CitationRefs),
				TagRefs:      hlinks(p.TagRefs),
			}
			for _, n := range p.Names {
				person.Names = append(person.Names, models.Name(n))
			}
			doc.People = append(doc.People, person)
		}
	}

	if db.Families != nil {
		for _, f := range db.Families.Family {
			family := models.Family{
				ID:           f.ID,
				Handle:       f.Handle,
				Change:       models.ParseTimestamp(f.Change),
				Private:      parsePriv(f.Priv),
				Father:       hlinkOf(f.Father),
				Mother:       hlinkOf(f.Mother),
				EventRefs:    eventRefs(f.EventRefs),
				NoteRefs:     hlinks(f.NoteRefs),
				CitationRefs: hlinks(f.CitationRefs),
				TagRefs:      hlinks(f.TagRefs),
			}
			if f.Rel != nil {
				family.Relationship = f.Rel.Type
			}
			for _, c := range f.ChildRefs {
				family.Children = append(family.Children, models.ChildRef{
					Handle: c.HLink,
					MRel:   models.ChildRefType(c.MRel),
					FRel:   models.ChildRefType(c.FRel),
				})
			}
			doc.Families = append(doc.Families, family)
		}
	}

	if db.Events != nil {
		for _, e := range db.Events.Event {
			doc.Events = append(doc.Events, models.Event{
				ID:           e.ID,
				Handle:       e.Handle,
				Change:       models.ParseTimestamp(e.Change),
				Private:      parsePriv(e.Priv),
				Type:         e.Type,
				Date:         dateOf(e.DateVal),
				Place:        hlinkOf(e.Place),
				Description:  e.Description,
				NoteRefs:     hlinks(e.NoteRefs),
				CitationRefs: hlinks(e.CitationRefs),
			})
		}
	}

	if db.Places != nil {
		for _, p := range db.Places.Place {
			doc.Places = append(doc.Places, models.Place{
				ID:      p.ID,
				Handle:  p.Handle,
				Change:  models.ParseTimestamp(p.Change),
				Private: parsePriv(p.Priv),
				Type:    p.Type,
				Title:   p.Title,
			})
		}
	}

	if db.Sources != nil {
		for _, s := range db.Sources.Source {
			source := models.Source{
				ID:       s.ID,
				Handle:   s.Handle,
				Change:   models.ParseTimestamp(s.Change),
				Private:  parsePriv(s.Priv),
				Title:    s.Title,
				Author:   s.Author,
				NoteRefs: hlinks(s.NoteRefs),
			}
			for _, r := range s.RepoRefs {
				source.RepoRefs = append(source.RepoRefs, models.RepoRef{Handle: r.HLink, Medium: r.Medium})
			}
			doc.Sources = append(doc.Sources, source)
		}
	}

	if db.Citations != nil {
		for _, c := range db.Citations.Citation {
			doc.Citations = append(doc.Citations, models.Citation{
				ID:         c.ID,
				Handle:     c.Handle,
				Change:     models.ParseTimestamp(c.Change),
				Private:    parsePriv(c.Priv),
				Date:       dateOf(c.DateVal),
				Page:       c.Page,
				Confidence: models.Confidence(c.Confidence),
				NoteRefs:   hlinks(c.NoteRefs),
				SourceRef:  hlinkOf(c.SourceRef),
			})
		}
	}

	if db.Repositories != nil {
		for _, r := range db.Repositories.Repository {
			doc.Repositories = append(doc.Repositories, models.Repository{
				ID:      r.ID,
				Handle:  r.Handle,
				Change:  models.ParseTimestamp(r.Change),
				Private: parsePriv(r.Priv),
				Name:    r.Name,
				Type:    r.Type,
			})
		}
	}

	if db.Notes != nil {
		for _, n := range db.Notes.Note {
			doc.Notes = append(doc.Notes, models.Note{
				ID:      n.ID,
				Handle:  n.Handle,
				Change:  models.ParseTimestamp(n.Change),
				Private: parsePriv(n.Priv),
				Format:  n.Format,
				Type:    n.Type,
				Text:    n.Text,
			})
		}
	}

	if db.Tags != nil {
		for _, t := range db.Tags.Tag {
			doc.Tags = append(doc.Tags, models.Tag{
				Handle:   t.Handle,
				Name:     t.Name,
				Color:    t.Color,
				Priority: models.ParsePriority(t.Priority),
				Change:   models.ParseTimestamp(t.Change),
			})
		}
	}

	return doc
}

// fromModel builds the wire tree for doc. Empty sections are left nil so
// they are not emitted.
func fromModel(doc *models.Document) *xmlDatabase {
	db := &xmlDatabase{
		XMLName: xml.Name{Space: namespaceFor(doc.SchemaVersion), Local: rootElement},
	}

	if !doc.Header.IsZero() {
		h := &xmlHeader{MediaPath: doc.Header.MediaPath}
		if c := doc.Header.Created; c != (models.Created{}) {
			h.Created = &xmlCreated{Date: c.Date, Version: c.Version}
		}
		if r := doc.Header.Researcher; r != nil {
			h.Researcher = &xmlResearcher{
				Name: r.Name, Address: r.Address, Locality: r.Locality, City: r.City,
				State: r.State, Country: r.Country, Postal: r.Postal, Phone: r.Phone, Email: r.Email,
			}
		}
		db.Header = h
	}

	if len(doc.People) > 0 {
		db.People = &xmlPeople{}
		for _, p := range doc.People {
			person := xmlPerson{
				Handle:       p.Handle,
				Change:       p.Change.String(),
				ID:           p.ID,
				Priv:         formatPriv(p.Private),
				Gender:       string(p.Gender),
				EventRefs:    toEventRefs(p.EventRefs),
				ChildOf:      toRefs(p.ChildOf),
				ParentIn:     toRefs(p.ParentIn),
				NoteRefs:     toRefs(p.NoteRefs),
				CitationRefs: toRefs(p.CitationRefs),
				TagRefs:      toRefs(p.TagRefs),
			}
			for _, n := range p.Names {
				person.Names = append(person.Names, xmlName(n))
			}
			db.People.Person = append(db.People.Person, person)
		}
	}

	if len(doc.Families) > 0 {
		db.Families = &xmlFamilies{}
		for _, f := range doc.Families {
			family := xmlFamily{
				Handle:       f.Handle,
				Change:       f.Change.String(),
				ID:           f.ID,
				Priv:         formatPriv(f.Private),
				Father:       refOf(f.Father),
				Mother:       refOf(f.Mother),
				EventRefs:    toEventRefs(f.EventRefs),
				NoteRefs:     toRefs(f.NoteRefs),
				CitationRefs: toRefs(f.CitationRefs),
				TagRefs:      toRefs(f.TagRefs),
			}
			if f.Relationship != "" {
				family.Rel = &xmlRelType{Type: f.Relationship}
			}
			for _, c := range f.Children {
				family.ChildRefs = append(family.ChildRefs, xmlChildRef{
					HLink: c.Handle,
					MRel:  string(c.MRel),
					FRel:  string(c.FRel),
				})
			}
			db.Families.Family = append(db.Families.Family, family)
		}
	}

	if len(doc.Events) > 0 {
		db.Events = &xmlEvents{}
		for _, e := range doc.Events {
			db.Events.Event = append(db.Events.Event, xmlEvent{
				Handle:       e.Handle,
				Change:       e.Change.String(),
				ID:           e.ID,
				Priv:         formatPriv(e.Private),
				Type:         e.Type,
				DateVal:      dateValOf(e.Date),
				Place:        refOf(e.Place),
				Description:  e.Description,
				NoteRefs:     toRefs(e.NoteRefs),
				CitationRefs: toRefs(e.CitationRefs),
			})
		}
	}

	if len(doc.Places) > 0 {
		db.Places = &xmlPlaces{}
		for _, p := range doc.Places {
			db.Places.Place = append(db.Places.Place, xmlPlace{
				Handle: p.Handle,
				Change: p.Change.String(),
				ID:     p.ID,
				Priv:   formatPriv(p.Private),
				Type:   p.Type,
				Title:  p.Title,
			})
		}
	}

	if len(doc.Sources) > 0 {
		db.Sources = &xmlSources{}
		for _, s := range doc.Sources {
			source := xmlSource{
				Handle:   s.Handle,
				Change:   s.Change.String(),
				ID:       s.ID,
				Priv:     formatPriv(s.Private),
				Title:    s.Title,
				Author:   s.Author,
				NoteRefs: toRefs(s.NoteRefs),
			}
			for _, r := range s.RepoRefs {
				source.RepoRefs = append(source.RepoRefs, xmlRepoRef{HLink: r.Handle, Medium: r.Medium})
			}
			db.Sources.Source = append(db.Sources.Source, source)
		}
	}

	if len(doc.Citations) > 0 {
		db.Citations = &xmlCitations{}
		for _, c := range doc.Citations {
			db.Citations.Citation = append(db.Citations.Citation, xmlCitation{
				Handle:     c.Handle,
				Change:     c.Change.String(),
				ID:         c.ID,
				Priv:       formatPriv(c.Private),
				DateVal:    dateValOf(c.Date),
				Page:       c.Page,
				Confidence: string(c.Confidence),
				NoteRefs:   toRefs(c.NoteRefs),
				SourceRef:  refOf(c.SourceRef),
			})
		}
	}

	if len(doc.Repositories) > 0 {
		db.Repositories = &xmlRepositories{}
		for _, r := range doc.Repositories {
			db.Repositories.Repository = append(db.Repositories.Repository, xmlRepository{
				Handle: r.Handle,
				Change: r.Change.String(),
				ID:     r.ID,
				Priv:   formatPriv(r.Private),
				Name:   r.Name,
				Type:   r.Type,
			})
		}
	}

	if len(doc.Notes) > 0 {
		db.Notes = &xmlNotes{}
		for _, n := range doc.Notes {
			db.Notes.Note = append(db.Notes.Note, xmlNote{
				Handle: n.Handle,
				Change: n.Change.String(),
				ID:     n.ID,
				Priv:   formatPriv(n.Private),
				Format: n.Format,
				Type:   n.Type,
				Text:   n.Text,
			})
		}
	}

	if len(doc.Tags) > 0 {
		db.Tags = &xmlTags{}
		for _, t := range doc.Tags {
			db.Tags.Tag = append(db.Tags.Tag, xmlTag{
				Handle:   t.Handle,
				Change:   t.Change.String(),
				Name:     t.Name,
				Color:    t.Color,
				Priority: t.Priority.String(),
			})
		}
	}

	return db
}
