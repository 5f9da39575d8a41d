package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://portal.jne.gob.pe/portal/Pagina/Ver/77/page/Convocatoria"

func newTestParser() *Parser {
	return New(models.DefaultDocumentExtensions, models.DefaultRepositoryFragments)
}

func TestExtractCandidates_Scenario(t *testing.T) {
	html := `<html><body><a href="/files/a.pdf">Fiscalizador Provincial</a></body></html>`

	got, err := newTestParser().ExtractCandidates(html, base)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Candidate{
		URL:        "https://portal.jne.gob.pe/files/a.pdf",
		AnchorText: "Fiscalizador Provincial",
	}, got[0])
}

func TestExtractCandidates_Selection(t *testing.T) {
	html := `<html><body>
		<a href="/files/UPPER.PDF">Upper</a>
		<a href="https://cdn.example.com/x.pdf?download=1">Query</a>
		<a href="/portal_documentos/files/12345">Repo link</a>
		<a href="/Portal_Documentos/Files/abc.docx">Repo mixed case</a>
		<a href="/descargar?archivo=bases_cas.PDF">Query file name</a>
		<a href="/files/bases.pdf#page=3">Fragment</a>
		<a href="/files/adjunto.pdf.zip">Zip</a>
		<a href="/page/otra">Not a document</a>
		<a href="mailto:rrhh@jne.gob.pe">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="   ">Blank</a>
		<a>No href</a>
	</body></html>`

	got, err := newTestParser().ExtractCandidates(html, base)
	require.NoError(t, err)

	var urls []string
	for _, c := range got {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{
		"https://portal.jne.gob.pe/files/UPPER.PDF",
		"https://cdn.example.com/x.pdf?download=1",
		"https://portal.jne.gob.pe/portal_documentos/files/12345",
		"https://portal.jne.gob.pe/Portal_Documentos/Files/abc.docx",
		"https://portal.jne.gob.pe/descargar?archivo=bases_cas.PDF",
		"https://portal.jne.gob.pe/files/bases.pdf",
	}, urls)
}

func TestExtractCandidates_LinkIdentity(t *testing.T) {
	tests := []struct {
		name  string
		hrefs []string
		want  []string
	}{
		{
			name:  "fragment variants collapse",
			hrefs: []string{"/files/a.pdf", "/files/a.pdf#page=2", "/files/a.pdf#"},
			want:  []string{"https://portal.jne.gob.pe/files/a.pdf"},
		},
		{
			name:  "fragment only link",
			hrefs: []string{"/files/a.pdf#page=2"},
			want:  []string{"https://portal.jne.gob.pe/files/a.pdf"},
		},
		{
			name:  "raw and escaped space",
			hrefs: []string{"/files/Bases CAS 01.pdf", "/files/Bases%20CAS%2001.pdf"},
			want:  []string{"https://portal.jne.gob.pe/files/Bases%20CAS%2001.pdf"},
		},
		{
			name:  "raw and escaped accent",
			hrefs: []string{"/files/Locación.pdf", "/files/Locaci%C3%B3n.pdf"},
			want:  []string{"https://portal.jne.gob.pe/files/Locaci%C3%B3n.pdf"},
		},
		{
			name:  "query file name",
			hrefs: []string{"/descargar?archivo=bases_cas.pdf"},
			want:  []string{"https://portal.jne.gob.pe/descargar?archivo=bases_cas.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var html strings.Builder
			for _, h := range tt.hrefs {
				fmt.Fprintf(&html, "<a href=%q>doc</a>\n", h)
			}

			got, err := newTestParser().ExtractCandidates(html.String(), base)
			require.NoError(t, err)

			var urls []string
			for _, c := range got {
				urls = append(urls, c.URL)
				assert.Equal(t, c.URL, models.LinkKey(c.URL), "candidate URL is already in key form")
			}
			assert.Equal(t, tt.want, urls)
		})
	}
}

func TestExtractCandidates_DedupFirstSeen(t *testing.T) {
	html := `<html><body>
		<a href="/files/a.pdf">First</a>
		<a href="/files/b.pdf">B</a>
		<a href="../../../../../files/a.pdf">Second spelling</a>
		<a href="https://portal.jne.gob.pe/files/a.pdf">Absolute</a>
	</body></html>`

	got, err := newTestParser().ExtractCandidates(html, base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://portal.jne.gob.pe/files/a.pdf", got[0].URL)
	assert.Equal(t, "First", got[0].AnchorText)
	assert.Equal(t, "https://portal.jne.gob.pe/files/b.pdf", got[1].URL)
}

func TestExtractCandidates_Idempotent(t *testing.T) {
	html := `<a href="/files/a.pdf">A</a><a href="/files/b.pdf">B</a><a href="/files/a.pdf">A again</a>`
	p := newTestParser()

	first, err := p.ExtractCandidates(html, base)
	require.NoError(t, err)
	second, err := p.ExtractCandidates(html, base)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractCandidates_AnchorText(t *testing.T) {
	html := `<a href="/files/a.pdf">
		<b>Fiscalizador</b><span>Distrital</span>
		  2024 </a>
		<a href="/files/b.pdf"><img src="icon.png"></a>`

	got, err := newTestParser().ExtractCandidates(html, base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fiscalizador Distrital 2024", got[0].AnchorText)
	assert.Equal(t, "", got[1].AnchorText)
}

func TestExtractCandidates_NoLinks(t *testing.T) {
	got, err := newTestParser().ExtractCandidates("<html><body><p>nada</p></body></html>", base)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractCandidates_BadBase(t *testing.T) {
	_, err := newTestParser().ExtractCandidates("<a href='/a.pdf'>x</a>", "://bad")
	assert.Error(t, err)
}

func TestDocumentText(t *testing.T) {
	text, err := DocumentText(`<html><head><style>p{}</style><script>var x=1</script></head>
		<body><h1>Bases</h1><p>Plaza de   Fiscalizador</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Bases Plaza de Fiscalizador", text)
}
