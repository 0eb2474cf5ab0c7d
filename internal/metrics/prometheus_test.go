package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExporter_Scrape(t *testing.T) {
	c := New()
	c.RecordAnalysis(false)
	c.RecordFetch(20*time.Millisecond, 512, nil)
	c.RecordFetch(20*time.Millisecond, 256, nil)
	c.RecordCacheHit()
	c.RecordPage("Mod")
	c.RecordPage("Mod")
	c.RecordPage("Modpack")

	ts := httptest.NewServer(NewExporter("workshopgraph", c).Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		"workshopgraph_analyses_total 1",
		"workshopgraph_fetches_total 2",
		"workshopgraph_fetched_bytes_total 768",
		"workshopgraph_cache_hits_total 1",
		`workshopgraph_pages_total{type="Mod"} 2`,
		`workshopgraph_pages_total{type="Modpack"} 1`,
		"workshopgraph_fetches_in_flight 0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("scrape missing %q:\n%s", want, text)
		}
	}
}

func TestExporter_FreshSnapshotPerScrape(t *testing.T) {
	c := New()
	h := NewExporter("wg", c).Handler()

	scrape := func() string {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		return rec.Body.String()
	}

	if !strings.Contains(scrape(), "wg_cycle_skips_total 0") {
		t.Fatal("initial scrape missing zero counter")
	}
	c.RecordCycleSkip()
	if !strings.Contains(scrape(), "wg_cycle_skips_total 1") {
		t.Error("second scrape did not reflect new value")
	}
}
