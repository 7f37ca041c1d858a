package datasource

import (
	"testing"

	"salesmart/internal/datasource/file"
	"salesmart/internal/datasource/httpds"
)

func TestIsRemote(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://data.example.com/retail.csv": true,
		"HTTP://host/x.csv":                   true,
		"data/retail_sales.csv":               false,
		"/abs/retail.csv.gz":                  false,
		"C:\\data\\retail.csv":                false,
		"http:///no-host.csv":                 false,
		"ftp://host/retail.csv":               false,
	}
	for in, want := range cases {
		if got := IsRemote(in); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_PicksImplementation(t *testing.T) {
	t.Parallel()

	if _, ok := New("https://host/a.csv", Options{}).(*httpds.Source); !ok {
		t.Fatal("remote location did not yield *httpds.Source")
	}
	if _, ok := New("a.csv", Options{}).(*file.Local); !ok {
		t.Fatal("local path did not yield *file.Local")
	}
}
