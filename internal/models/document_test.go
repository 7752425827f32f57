package models

import "testing"

func TestEntriesOrder(t *testing.T) {
	doc := &Document{
		People:   []Person{{Handle: "p1", ID: "I01"}, {Handle: "p2"}},
		Families: []Family{{Handle: "f1", ID: "F01"}},
		Tags:     []Tag{{Handle: "t1", Name: "ToDo"}},
	}
	got := doc.Entries()
	want := []Entry{
		{Kind: KindPerson, Handle: "p1", ID: "I01", Position: 0},
		{Kind: KindPerson, Handle: "p2", Position: 1},
		{Kind: KindFamily, Handle: "f1", ID: "F01", Position: 0},
		{Kind: KindTag, Handle: "t1", ID: "ToDo", Position: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("entries = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if got[1].Label() != "person p2" || got[2].Label() != "family F01" {
		t.Errorf("labels = %q, %q", got[1].Label(), got[2].Label())
	}
	if c := doc.Counts(); c[KindPerson] != 2 || c[KindNote] != 0 {
		t.Errorf("counts = %v", c)
	}
}

func TestPrimaryName(t *testing.T) {
	p := Person{Names: []Name{{Type: "Birth Name", Surname: "Smith"}, {Type: "Married Name", Surname: "Doe"}}}
	n, ok := p.Primary()
	if !ok || n.Surname != "Smith" {
		t.Errorf("primary = %+v, %v", n, ok)
	}
	if _, ok := (&Person{}).Primary(); ok {
		t.Error("person without names has no primary name")
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if Kind("spaceship").Valid() || Kind("").Valid() {
		t.Error("unknown kinds should be invalid")
	}
}
