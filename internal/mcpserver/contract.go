package mcpserver

// FormatContract describes the Gramps XML subset that LLM consumers should
// follow when writing archives, and the JSON document shape the tools accept.
const FormatContract = `# Gramps XML Format Contract

Archives are Gramps XML 1.7.2 files. ` + "`" + `.gramps` + "`" + ` files are gzip-compressed,
` + "`" + `.xml` + "`" + ` files are plain text. Both are UTF-8.

## Document skeleton

` + "```" + `xml
<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE database PUBLIC "-//Gramps//DTD Gramps XML 1.7.2//EN"
"http://gramps-project.org/xml/1.7.2/grampsxml.dtd">
<database xmlns="http://gramps-project.org/xml/1.7.2/">
  <header>...</header>
  <people>...</people>
  <families>...</families>
  <events>...</events>
  <places>...</places>
  <sources>...</sources>
  <citations>...</citations>
  <repositories>...</repositories>
  <notes>...</notes>
  <tags>...</tags>
</database>
` + "```" + `

Sections appear in this order. Empty sections are left out.

## Records

| element | JSON section | notable fields |
|---|---|---|
| person | people | gender (M, F, U), names (first, surname, suffix, title, type), eventrefs, childof, parentin |
| family | families | rel, father, mother, childrefs (hlink, mrel, frel), eventrefs |
| event | events | type, dateval, place, description |
| placeobj | places | type, ptitle |
| source | sources | stitle, sauthor, reporefs (hlink, medium) |
| citation | citations | page, confidence (0 to 4), sourceref, dateval |
| repository | repositories | rname, type |
| note | notes | type, format, text |
| tag | tags | name, color, priority |

Every record has a ` + "`" + `handle` + "`" + `, unique across the whole document. People,
families and the other primary records also carry a human-facing ` + "`" + `id` + "`" + `
such as I0001 or F0001. ` + "`" + `change` + "`" + ` is the last-modified time in Unix seconds.

## Rules

1. **Handles are unique** across all sections, not only within one.
2. **References resolve.** A father or mother handle names a person, a childref
   names a person, a place reference names a placeobj, and so on. A reference to
   a missing handle or to a record of the wrong kind is a violation.
3. **Closed values.** gender is M, F or U; confidence is 0 to 4; mrel and frel
   are Birth, Adopted, Stepchild, Sponsored, Foster, None, Unknown or Custom.
4. **Required fields.** handle on every record, gender on people, confidence on
   citations, rname on repositories, name on tags.
5. **Defaults on write.** A missing handle is generated, a missing change is set
   to the current time and a missing gender is written as U.
6. **Names keep their order.** The first name of a person is the primary name.

## Example (JSON document for write_archive)

` + "```" + `json
{
  "people": [
    {"handle": "_p1", "id": "I0001", "gender": "F",
     "names": [{"type": "Birth Name", "first": "Ada", "surname": "Lovelace"}]}
  ],
  "families": [
    {"handle": "_f1", "id": "F0001", "mother": "_p1", "childrefs": []}
  ]
}
` + "```" + `
`
