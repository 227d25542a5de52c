package manifest_test

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/weles/internal/manifest"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    manifest.Language
		wantErr bool
	}{
		{"python", manifest.Python, false},
		{"Python", manifest.Python, false},
		{" r ", manifest.R, false},
		{"R", manifest.R, false},
		{"julia", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := manifest.ParseLanguage(tt.in)
			if tt.wantErr {
				if !errors.Is(err, manifest.ErrUnsupportedLanguage) {
					t.Errorf("error: got %v, want ErrUnsupportedLanguage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		lang manifest.Language
		raw  string
		want []string
	}{
		{
			name: "python sorted",
			lang: manifest.Python,
			raw:  "scikit-learn==0.24\nnumpy==1.19",
			want: []string{"numpy==1.19", "scikit-learn==0.24"},
		},
		{
			name: "python drops unsupported lines",
			lang: manifest.Python,
			raw:  "# comment\n-e git+https://example.com/pkg\npandas>=1.0\nrequests==2.25.1\n\n",
			want: []string{"requests==2.25.1"},
		},
		{
			name: "python keeps duplicates",
			lang: manifest.Python,
			raw:  "numpy==1.19\nnumpy==1.19\naiohttp==3.7.4",
			want: []string{"aiohttp==3.7.4", "numpy==1.19", "numpy==1.19"},
		},
		{
			name: "python extras and crlf",
			lang: manifest.Python,
			raw:  "uvicorn[standard]==0.13.4\r\nzipp==3.4.1\r\n",
			want: []string{"uvicorn[standard]==0.13.4", "zipp==3.4.1"},
		},
		{
			name: "r sorted",
			lang: manifest.R,
			raw:  "randomForest,4.6-14\nDALEX,2.0.1\nggplot2,3.3.3",
			want: []string{"DALEX,2.0.1", "ggplot2,3.3.3", "randomForest,4.6-14"},
		},
		{
			name: "r drops python syntax",
			lang: manifest.R,
			raw:  "numpy==1.19\ndata.table,1.14.0\n,1.0",
			want: []string{"data.table,1.14.0"},
		},
		{
			name: "nothing matches",
			lang: manifest.Python,
			raw:  "not a requirement",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := manifest.Normalize([]byte(tt.raw), tt.lang)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(m.Lines, tt.want) {
				t.Errorf("lines: got %q, want %q", m.Lines, tt.want)
			}
			if m.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", m.Len(), len(tt.want))
			}
		})
	}
}

func TestNormalizeUnsupportedLanguage(t *testing.T) {
	_, err := manifest.Normalize([]byte("numpy==1.19"), manifest.Language("julia"))
	if !errors.Is(err, manifest.ErrUnsupportedLanguage) {
		t.Errorf("error: got %v, want ErrUnsupportedLanguage", err)
	}
}

func TestManifestBytes(t *testing.T) {
	m := manifest.Manifest{Lines: []string{"a==1", "b==2"}}
	if got := string(m.Bytes()); got != "a==1\nb==2\n" {
		t.Errorf("Bytes() = %q", got)
	}

	empty := manifest.Manifest{}
	if got := empty.Bytes(); len(got) != 0 {
		t.Errorf("empty Bytes() = %q", got)
	}
}

func TestIdentifyMatchesSequentialDigest(t *testing.T) {
	body := []byte("numpy==1.19\nscikit-learn==0.24\n")

	h := sha256.New()
	h.Write([]byte("python"))
	h.Write([]byte("3.8.0"))
	h.Write(body)
	want := hex.EncodeToString(h.Sum(nil))

	if got := manifest.Identify(body, manifest.Python, "3.8.0"); string(got) != want {
		t.Errorf("Identify() = %s, want %s", got, want)
	}
}

func TestIdentifyDeterministic(t *testing.T) {
	raw := []byte("scikit-learn==0.24\nnumpy==1.19")

	first, _ := manifest.Normalize(raw, manifest.Python)
	second, _ := manifest.Normalize(raw, manifest.Python)

	a := manifest.Identify(first.Bytes(), manifest.Python, "3.8.0")
	b := manifest.Identify(second.Bytes(), manifest.Python, "3.8.0")
	if a != b {
		t.Errorf("identifiers differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("identifier length = %d, want 64", len(a))
	}
}

func TestIdentifyOrderInsensitiveAfterNormalize(t *testing.T) {
	a, _ := manifest.Normalize([]byte("numpy==1.19\nscikit-learn==0.24"), manifest.Python)
	b, _ := manifest.Normalize([]byte("scikit-learn==0.24\nnumpy==1.19\n# pinned"), manifest.Python)

	if manifest.Identify(a.Bytes(), manifest.Python, "3.8.0") != manifest.Identify(b.Bytes(), manifest.Python, "3.8.0") {
		t.Error("equivalent manifests produced different identifiers")
	}
}

func TestIdentifyDistinguishesInputs(t *testing.T) {
	body := []byte("numpy==1.19\n")
	base := manifest.Identify(body, manifest.Python, "3.8.0")

	tests := []struct {
		name string
		id   manifest.Identifier
	}{
		{"version", manifest.Identify(body, manifest.Python, "3.9.0")},
		{"language", manifest.Identify(body, manifest.R, "3.8.0")},
		{"body", manifest.Identify([]byte("numpy==1.20\n"), manifest.Python, "3.8.0")},
		{"duplicate line", manifest.Identify([]byte("numpy==1.19\nnumpy==1.19\n"), manifest.Python, "3.8.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.id == base {
				t.Errorf("identifier unchanged when %s changed", tt.name)
			}
		})
	}
}

func TestIdentifyEmptyManifest(t *testing.T) {
	id := manifest.Identify(nil, manifest.R, "4.0.3")
	if len(id) != 64 {
		t.Errorf("empty manifest identifier length = %d, want 64", len(id))
	}
}

func TestParse(t *testing.T) {
	py := manifest.Parse([]byte("numpy==1.19\nscikit-learn==0.24\n"), manifest.Python)
	if py["numpy"] != "1.19" || py["scikit-learn"] != "0.24" || len(py) != 2 {
		t.Errorf("python parse: got %v", py)
	}

	r := manifest.Parse([]byte("DALEX,2.0.1\nggplot2,3.3.3\n"), manifest.R)
	if r["DALEX"] != "2.0.1" || r["ggplot2"] != "3.3.3" || len(r) != 2 {
		t.Errorf("r parse: got %v", r)
	}

	if got := manifest.Parse([]byte("x==1"), manifest.Language("julia")); len(got) != 0 {
		t.Errorf("unknown language parse: got %v", got)
	}
}
