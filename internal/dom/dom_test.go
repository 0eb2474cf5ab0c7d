package dom

import (
	"testing"
)

const samplePage = `<html><body>
<div class="workshopItemDescription" id="highlightContent">Intro<br>Workshop ID: 555<br><b>Mod ID:</b> coolmod<br></div>
<div id="RequiredItems">
	<a href="https://steamcommunity.com/workshop/filedetails/?id=2"><div class="requiredItem">Dep</div></a>
	<a href="https://example.com/other">Other</a>
</div>
</body></html>`

func mustParse(t *testing.T, s string) Document {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func TestDocument_Exists(t *testing.T) {
	doc := mustParse(t, samplePage)

	if !doc.Exists("#RequiredItems") {
		t.Error("Exists(#RequiredItems) = false")
	}
	if doc.Exists(".collectionChildren") {
		t.Error("Exists(.collectionChildren) = true")
	}
}

func TestDocument_FindWithin(t *testing.T) {
	doc := mustParse(t, samplePage)

	links := doc.FindWithin("#RequiredItems", "a")
	if len(links) != 2 {
		t.Fatalf("FindWithin() returned %d nodes, want 2", len(links))
	}
	href, ok := links[0].Attr("href")
	if !ok || href != "https://steamcommunity.com/workshop/filedetails/?id=2" {
		t.Errorf("Attr(href) = %q, %v", href, ok)
	}
	if _, ok := links[0].Attr("title"); ok {
		t.Error("Attr(title) should be absent")
	}
	if links[0].Text() != "Dep" {
		t.Errorf("Text() = %q, want Dep", links[0].Text())
	}
}

func TestNode_SiblingTraversal(t *testing.T) {
	doc := mustParse(t, samplePage)

	brs := doc.Find("br")
	if len(brs) != 3 {
		t.Fatalf("found %d br nodes, want 3", len(brs))
	}

	first := brs[0].NextSibling()
	if first == nil || !first.IsText() || first.Text() != "Workshop ID: 555" {
		t.Fatalf("sibling after first br = %#v", first)
	}
	if next := first.NextSibling(); next == nil || next.Tag() != "br" {
		t.Errorf("expected br after text node")
	}

	bold := brs[1].NextSibling()
	if bold == nil || !bold.IsElement() || bold.Tag() != "b" || bold.Text() != "Mod ID:" {
		t.Errorf("sibling after second br = %#v", bold)
	}

	if brs[2].NextSibling() != nil {
		t.Error("last br should have no sibling")
	}
}

func TestNode_Find(t *testing.T) {
	doc := mustParse(t, `<div class="collectionChildren">
		<div class="collectionItem"><a href="?id=1"><img></a><a href="?id=1">Title</a></div>
		<div class="collectionItem"><span>no link</span></div>
	</div>`)

	items := doc.FindWithin(".collectionChildren", ".collectionItem")
	if len(items) != 2 {
		t.Fatalf("found %d items, want 2", len(items))
	}
	if got := len(items[0].Find("a")); got != 2 {
		t.Errorf("first item has %d links, want 2", got)
	}
	if got := len(items[1].Find("a")); got != 0 {
		t.Errorf("second item has %d links, want 0", got)
	}
}
