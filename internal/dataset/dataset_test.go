package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const sampleCSV = `Unnamed: 0,state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs,mod_rs
0,Kerala,Ernakulam,Aluva,Banana,Nendra Bale,Fruits,2023-01-02,2.0,1800,2200,2000
1,Kerala,Ernakulam,Aluva,Tomato,Local,Vegetables,2023-01-02,1.5,900,1200,1000
2,Kerala,Ernakulam,Aluva,Banana,Nendra Bale,Fruits,2023-01-01,4.0,1700,2100,1900
3,Kerala,Ernakulam,Perumbavoor,Banana,Nendra Bale,Fruits,2023-01-01,3.0,1750,2150,1950
4,Kerala,Ernakulam,Aluva,Onion,Big,Vegetables,2023-01-03,6.0,1400,1800,1600
5,Kerala,Kottayam,Aluva,Garlic,Average,Spices,2023-01-03,1.0,5000,6000,5500
`

func TestParseCSV_DropsIndexAndMapsAliases(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("Expected 6 records, got %d", len(records))
	}

	r := records[0]
	if r.State != "Kerala" || r.Market != "Aluva" || r.Commodity != "Banana" || r.Group != "Fruits" {
		t.Errorf("Unexpected categories: %+v", r)
	}
	if r.Arrival != 2.0 || r.MinPrice != 1800 || r.MaxPrice != 2200 || r.ModalPrice != 2000 {
		t.Errorf("Unexpected numbers: %+v", r)
	}
	if !r.Date.Equal(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected date: %v", r.Date)
	}
}

func TestParseCSV_EmptyIndexHeader(t *testing.T) {
	data := `,state,district,market,commodity,variety,group,date,arrival,min_price,max_price,modal_price
7,Goa,North Goa,Mapusa,Rice,Fine,Cereals,02-01-2023,1,10,20,15
`
	records, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(records) != 1 || records[0].ModalPrice != 15 {
		t.Fatalf("Unexpected records: %+v", records)
	}
	if records[0].Date.Month() != time.January || records[0].Date.Day() != 2 {
		t.Errorf("Expected day-first date, got %v", records[0].Date)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		missing  bool
		wantText string
	}{
		{
			name:    "missing modal price column",
			data:    "state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs\n",
			missing: true,
		},
		{
			name: "bad number",
			data: "state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs,mod_rs\n" +
				"Goa,North Goa,Mapusa,Rice,Fine,Cereals,2023-01-02,lots,10,20,15\n",
		},
		{
			name: "bad date",
			data: "state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs,mod_rs\n" +
				"Goa,North Goa,Mapusa,Rice,Fine,Cereals,yesterday,1,10,20,15\n",
		},
		{
			name: "negative arrival",
			data: "state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs,mod_rs\n" +
				"Goa,North Goa,Mapusa,Rice,Fine,Cereals,2023-01-02,-1,10,20,15\n",
			wantText: "line 2: arrival must not be negative",
		},
		{
			name: "negative price",
			data: "state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs,mod_rs\n" +
				"Goa,North Goa,Mapusa,Rice,Fine,Cereals,2023-01-02,1,10,20,-15\n",
			wantText: "prices must not be negative",
		},
		{
			name: "blank market",
			data: "state,district,market,commodity,variety,group,date,arrival,min_rs,max_rs,mod_rs\n" +
				"Goa,North Goa, ,Rice,Fine,Cereals,2023-01-02,1,10,20,15\n",
			wantText: "market must not be empty",
		},
		{
			name: "empty input",
			data: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.data))
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.missing && !errors.Is(err, ErrMissingColumn) {
				t.Errorf("Expected ErrMissingColumn, got %v", err)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Expected error containing %q, got %v", tt.wantText, err)
			}
		})
	}
}

func loadSample(t *testing.T) *Table {
	t.Helper()
	records, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	return NewTable(records)
}

func TestTable_Commodities(t *testing.T) {
	table := loadSample(t)

	got := table.Commodities("Kerala", "Ernakulam", "Aluva")
	want := []string{"Banana", "Tomato", "Onion"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Commodities() = %v, expected %v", got, want)
	}

	// Same market name in another district is a different market
	got = table.Commodities("Kerala", "Kottayam", "Aluva")
	if !reflect.DeepEqual(got, []string{"Garlic"}) {
		t.Errorf("Commodities() = %v, expected [Garlic]", got)
	}

	if got := table.Commodities("Kerala", "Ernakulam", ""); got != nil {
		t.Errorf("Expected no commodities for empty market, got %v", got)
	}
	if got := table.Commodities("Kerala", "Ernakulam", "Nowhere"); len(got) != 0 {
		t.Errorf("Expected no commodities for unknown market, got %v", got)
	}
}

func TestTable_CommoditiesMatchUniqueRows(t *testing.T) {
	table := loadSample(t)

	triples := map[[3]string]bool{}
	for _, r := range table.Records() {
		triples[[3]string{r.State, r.District, r.Market}] = true
	}

	for tr := range triples {
		want := map[string]bool{}
		for _, r := range table.Records() {
			if r.State == tr[0] && r.District == tr[1] && r.Market == tr[2] {
				want[r.Commodity] = true
			}
		}
		got := table.Commodities(tr[0], tr[1], tr[2])
		if len(got) != len(want) {
			t.Errorf("%v: got %v, expected set %v", tr, got, want)
		}
		for _, c := range got {
			if !want[c] {
				t.Errorf("%v: unexpected commodity %s", tr, c)
			}
		}
	}
}

func TestTable_Matching(t *testing.T) {
	table := loadSample(t)

	rows := table.Matching("Kerala", "Ernakulam", "Aluva", "Banana")
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if !r.Matches("Kerala", "Ernakulam", "Aluva", "Banana") {
			t.Errorf("Unexpected row %+v", r)
		}
	}

	if rows := table.Matching("Kerala", "Ernakulam", "Aluv", "Banana"); len(rows) != 0 {
		t.Errorf("Partial match must not return rows, got %d", len(rows))
	}
}

func TestLoader_MemoizesPerLocation(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	loader := NewLoader(NewFetcher(5 * time.Second))
	ctx := context.Background()

	var wg sync.WaitGroup
	tables := make([]*Table, 4)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := loader.Load(ctx, server.URL+"/prices.csv")
			if err != nil {
				t.Errorf("Load failed: %v", err)
				return
			}
			tables[i] = table
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected a single fetch, got %d", got)
	}
	for _, table := range tables[1:] {
		if table != tables[0] {
			t.Error("Expected the same table instance for every call")
		}
	}

	if _, err := loader.Load(ctx, server.URL+"/other.csv"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected a second fetch for a new location, got %d", got)
	}
}

func TestLoader_HTTPFailureIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	loader := NewLoader(NewFetcher(5 * time.Second))
	for i := 0; i < 2; i++ {
		if _, err := loader.Load(context.Background(), server.URL); err == nil {
			t.Fatal("Expected error for 503 response")
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected exactly one request, got %d", got)
	}
}

func TestLoader_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := NewLoader(NewFetcher(time.Second)).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 6 {
		t.Errorf("Expected 6 records, got %d", table.Len())
	}

	if _, err := NewLoader(NewFetcher(time.Second)).Load(context.Background(), path+".missing"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDriveDownloadURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"https://drive.google.com/file/d/1xubrLuhQDEr_vz1xFBxK1rKQHh1DpT7v/view?usp=sharing",
			"https://drive.usercontent.google.com/download?id=1xubrLuhQDEr_vz1xFBxK1rKQHh1DpT7v&export=download&authuser=0&confirm=t",
		},
		{"https://example.com/prices.csv", "https://example.com/prices.csv"},
		{"https://drive.google.com/drive/folders", "https://drive.google.com/drive/folders"},
	}
	for _, tt := range tests {
		if got := DriveDownloadURL(tt.in); got != tt.want {
			t.Errorf("DriveDownloadURL(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
